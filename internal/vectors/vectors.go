// Package vectors minifies SVG files and stacks icon SVGs into a sprite sheet
// with its positioning stylesheet.
package vectors

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// Stage names.
const (
	StageName       = "svg"
	SpriteStageName = "spritesvg"
)

const mediaType = "image/svg+xml"

// NewStage builds the svg stage: every matched file is minified.
func NewStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategoryVectors, n, []pipeline.Step{MinifyStep()})
}

// NewSpriteStage builds the spritesvg stage: minify, then stack into a sheet.
func NewSpriteStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(SpriteStageName, cfg, config.CategoryVectorSprite, n,
		[]pipeline.Step{MinifyStep(), SpriteStep(cfg.Vectors)})
}

// MinifyStep minifies each SVG file.
func MinifyStep() pipeline.Step {
	m := minify.New()
	m.AddFunc(mediaType, svg.Minify)
	return pipeline.PerFile("svgmin", func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
		out, err := m.Bytes(mediaType, f.Contents)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTransform, "svg minification failed").Build()
		}
		return f.Derive(f.Rel, out), nil
	})
}
