// Package styles builds the single stylesheet artifact: concatenation, WebP
// rules, compilation, vendor prefixes and, in production, minification, with a
// source map written alongside.
package styles

import (
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
	"git.home.luguber.info/inful/assetbuilder/internal/sourcemap"
)

// StageName is the task name of the style stage.
const StageName = "style"

const mediaType = "text/css"

// NewStage builds the style stage for cfg using compiler.
func NewStage(cfg *config.Config, n notify.Notifier, compiler Compiler) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategoryStyles, n, Steps(cfg, compiler))
}

// Steps returns the style chain.
func Steps(cfg *config.Config, compiler Compiler) []pipeline.Step {
	artifact := cfg.Styles.Artifact
	steps := []pipeline.Step{
		pipeline.Concat(artifact, cfg.Root),
		pipeline.PerFile("webpcss", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			out := f.Derive(f.Rel, RewriteWebP(f.Contents))
			out.Map = f.Map
			return out, nil
		}),
		pipeline.PerFile("compile", func(ctx context.Context, f *pipeline.File) (*pipeline.File, error) {
			compiled, m, err := compiler.Compile(ctx, f.Contents, sourceDirs(f.Map))
			if err != nil {
				return nil, err
			}
			out := f.Derive(f.Rel, compiled)
			switch {
			case m != nil && f.Map != nil:
				out.Map = sourcemap.Compose(m, f.Map)
			case m != nil:
				out.Map = m
			case bytes.Equal(compiled, f.Contents):
				out.Map = f.Map
			case f.Map != nil:
				out.Map = sourcemap.Coarse(f.Map, compiled)
			}
			return out, nil
		}),
		pipeline.PerFile("autoprefixer", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			out := f.Derive(f.Rel, Prefix(f.Contents))
			out.Map = f.Map
			return out, nil
		}),
	}
	if cfg.Production {
		steps = append(steps, pipeline.PerFile("minify", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			minified, err := Minify(f.Contents)
			if err != nil {
				return nil, err
			}
			out := f.Derive(f.Rel, minified)
			if f.Map != nil {
				out.Map = sourcemap.Coarse(f.Map, minified)
			}
			return out, nil
		}))
	}
	return append(steps, WriteMap())
}

// Minify compresses CSS. Minifying minified output returns it unchanged.
func Minify(src []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc(mediaType, css.Minify)
	out, err := m.Bytes(mediaType, src)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTransform, "css minification failed").Build()
	}
	return out, nil
}

// WriteMap appends the sourceMappingURL comment to every stylesheet and emits
// its map as a sibling file.
func WriteMap() pipeline.Step {
	return pipeline.PerFileMulti("sourcemaps", func(_ context.Context, f *pipeline.File) ([]*pipeline.File, error) {
		m := f.Map
		if m == nil {
			m = sourcemap.Identity(path.Base(f.Rel), f.Rel, f.Contents)
		}
		m.File = path.Base(f.Rel)
		data, err := json.Marshal(m)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode source map").Build()
		}
		mapRel := f.Rel + ".map"
		css := append(append([]byte(nil), f.Contents...), sourcemap.Comment(path.Base(mapRel))...)
		return []*pipeline.File{f.Derive(f.Rel, css), f.Derive(mapRel, data)}, nil
	})
}

func sourceDirs(m *sourcemap.Map) []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, s := range m.Sources {
		d := path.Dir(s)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
