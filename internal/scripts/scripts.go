// Package scripts concatenates the script sources into one bundle, minified
// with esbuild in production.
package scripts

import (
	"context"
	stderrors "errors"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// StageName is the task name of the script stage.
const StageName = "js"

// NewStage builds the script stage for cfg.
func NewStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategoryScripts, n, Steps(cfg))
}

// Steps returns the script chain.
func Steps(cfg *config.Config) []pipeline.Step {
	steps := []pipeline.Step{pipeline.Concat(cfg.Scripts.Artifact, cfg.Root)}
	if cfg.Production {
		steps = append(steps, pipeline.PerFile("minify", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			out, err := Minify(f.Contents)
			if err != nil {
				return nil, err
			}
			return f.Derive(f.Rel, out), nil
		}))
	}
	return steps
}

// Minify compresses JavaScript: whitespace, local identifiers and syntax.
func Minify(src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		ls := make([]error, len(result.Errors))
		for k, v := range result.Errors {
			ls[k] = stderrors.New(v.Text)
		}
		return nil, errors.WrapError(stderrors.Join(ls...), errors.CategoryTransform, "javascript minification failed").Build()
	}
	return result.Code, nil
}
