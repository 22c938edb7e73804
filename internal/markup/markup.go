// Package markup assembles HTML pages from partials and offers WebP variants
// of raster images.
package markup

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// StageName is the task name of the markup stage.
const StageName = "html"

// NewStage builds the markup stage for cfg.
func NewStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategoryMarkup, n, Steps(NewIncluder()))
}

// Steps returns the markup chain: include expansion then the WebP rewrite.
func Steps(in *Includer) []pipeline.Step {
	return []pipeline.Step{
		pipeline.PerFile("include", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			data, err := in.Expand(f.Path, f.Contents)
			if err != nil {
				return nil, err
			}
			return f.Derive(f.Rel, data), nil
		}),
		pipeline.PerFile("webp-html", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			switch strings.ToLower(f.Ext()) {
			case ".html", ".htm":
				return f.Derive(f.Rel, RewriteWebP(f.Contents)), nil
			}
			return f, nil
		}),
	}
}
