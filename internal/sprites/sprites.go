// Package sprites packs small PNG icons into one image and writes the
// stylesheet positioning each icon.
package sprites

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// StageName is the task name of the sprite stage.
const StageName = "spriteimg"

// NewStage builds the sprite stage for cfg.
func NewStage(cfg *config.Config, n notify.Notifier) *pipeline.Stage {
	return pipeline.ForCategory(StageName, cfg, config.CategorySprites, n, []pipeline.Step{Step(cfg.Sprites)})
}

// Step packs every decodable PNG into cfg.Image and writes cfg.CSS.
func Step(cfg config.SpritesConfig) pipeline.Step {
	return pipeline.StepFunc{StepName: "spritesmith", Fn: func(_ context.Context, files []*pipeline.File, rep *pipeline.Reporter) ([]*pipeline.File, error) {
		var (
			blocks []*Block
			imgs   = make(map[*Block]image.Image)
			names  = make(map[string]bool)
		)
		for _, f := range files {
			img, err := png.Decode(bytes.NewReader(f.Contents))
			if err != nil {
				rep.Warn("spritesmith", f, errors.WrapError(err, errors.CategoryTransform, "invalid png").Build())
				continue
			}
			name := Slug(strings.TrimSuffix(path.Base(f.Rel), path.Ext(f.Rel)))
			if name == "" || names[name] {
				rep.Warn("spritesmith", f, errors.TransformError("duplicate or empty icon name").WithContext("name", name).Build())
				continue
			}
			names[name] = true
			bounds := img.Bounds()
			b := &Block{Name: name, W: bounds.Dx(), H: bounds.Dy()}
			blocks = append(blocks, b)
			imgs[b] = img
		}
		if len(blocks) == 0 {
			return nil, nil
		}

		w, h := Pack(blocks, cfg.Padding)
		sheet := image.NewNRGBA(image.Rect(0, 0, w, h))
		for _, b := range blocks {
			img := imgs[b]
			draw.Draw(sheet, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H), img, img.Bounds().Min, draw.Src)
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, sheet); err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode sprite sheet").Build()
		}

		return []*pipeline.File{
			{Rel: cfg.Image, Contents: buf.Bytes()},
			{Rel: cfg.CSS, Contents: Stylesheet(blocks, cfg.ImageURL)},
		}, nil
	}}
}

// Stylesheet renders one rule per block, in name order.
func Stylesheet(blocks []*Block, imageURL string) []byte {
	sorted := append([]*Block(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	var b strings.Builder
	for i, blk := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, ".icon-%s {\n", blk.Name)
		fmt.Fprintf(&b, "  background-image: url(%s);\n", imageURL)
		fmt.Fprintf(&b, "  background-position: %s %s;\n", offset(blk.X), offset(blk.Y))
		fmt.Fprintf(&b, "  width: %dpx;\n", blk.W)
		fmt.Fprintf(&b, "  height: %dpx;\n", blk.H)
		b.WriteString("}\n")
	}
	return []byte(b.String())
}

func offset(v int) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("-%dpx", v)
}
