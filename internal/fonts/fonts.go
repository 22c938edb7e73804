// Package fonts produces web font formats: OpenType outlines are converted to
// TrueType in the source tree, and TrueType fonts are wrapped as WOFF and
// WOFF2 for the build output.
package fonts

import (
	"context"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// Stage names.
const (
	OutlineStageName = "otf"
	StageName        = "ttf"
)

// NewStage builds the ttf stage with its WOFF and WOFF2 chains.
func NewStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategoryFonts, n,
		[]pipeline.Step{WOFF2Step()},
		[]pipeline.Step{WOFFStep()},
	)
}

// NewOutlineStage builds the otf stage. A nil converter uses the configured
// external converter.
func NewOutlineStage(cfg *config.Config, n notify.Notifier, conv OutlineConverter) *pipeline.Stage {
	if conv == nil {
		conv = NewFontForge(cfg.Fonts.Converter)
	}
	return pipeline.ForCategory(OutlineStageName, cfg, config.CategoryOutlines, n,
		[]pipeline.Step{OutlineStep(conv)})
}

// WOFFStep wraps each TrueType font as WOFF.
func WOFFStep() pipeline.Step {
	return convert("ttf2woff", ".woff", func(_ context.Context, b []byte) ([]byte, error) { return WOFF(b) })
}

// WOFF2Step wraps each TrueType font as WOFF2.
func WOFF2Step() pipeline.Step {
	return convert("ttf2woff2", ".woff2", func(_ context.Context, b []byte) ([]byte, error) { return WOFF2(b) })
}

// OutlineStep converts each OpenType font to TrueType.
func OutlineStep(conv OutlineConverter) pipeline.Step {
	return convert("otf2ttf", ".ttf", conv.ToTTF)
}

func convert(name, ext string, fn func(context.Context, []byte) ([]byte, error)) pipeline.Step {
	return pipeline.PerFile(name, func(ctx context.Context, f *pipeline.File) (*pipeline.File, error) {
		out, err := fn(ctx, f.Contents)
		if err != nil {
			return nil, err
		}
		return f.Derive(f.WithExt(ext), out), nil
	})
}
