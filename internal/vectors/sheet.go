package vectors

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
	"git.home.luguber.info/inful/assetbuilder/internal/sprites"
)

// Icon is one SVG placed in the sheet.
type Icon struct {
	Name    string
	Width   float64
	Height  float64
	Y       float64
	ViewBox string
	inner   []byte
}

// ParseIcon reads the root dimensions and inner markup of an SVG document.
// Width and height fall back to the viewBox when absent.
func ParseIcon(name string, data []byte) (*Icon, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("no svg root element")
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return nil, fmt.Errorf("root element is %q, not svg", start.Name.Local)
		}
		icon := &Icon{Name: name}
		var w, h string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "width":
				w = a.Value
			case "height":
				h = a.Value
			case "viewBox":
				icon.ViewBox = strings.Join(strings.Fields(strings.ReplaceAll(a.Value, ",", " ")), " ")
			}
		}
		vb := strings.Fields(icon.ViewBox)
		if icon.Width, ok = length(w); !ok && len(vb) == 4 {
			icon.Width, ok = length(vb[2])
		}
		if !ok {
			return nil, fmt.Errorf("svg without width")
		}
		if icon.Height, ok = length(h); !ok && len(vb) == 4 {
			icon.Height, ok = length(vb[3])
		}
		if !ok {
			return nil, fmt.Errorf("svg without height")
		}
		if icon.ViewBox == "" {
			icon.ViewBox = fmt.Sprintf("0 0 %s %s", num(icon.Width), num(icon.Height))
		}

		begin := int(dec.InputOffset())
		end := bytes.LastIndex(data, []byte("</svg>"))
		if end < begin {
			// self-closing root
			end = begin
		}
		icon.inner = bytes.TrimSpace(data[begin:end])
		return icon, nil
	}
}

func length(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Sheet stacks icons vertically, in order, and returns the sheet document
// and its total size.
func Sheet(icons []*Icon) ([]byte, float64, float64) {
	var width, y float64
	for _, ic := range icons {
		ic.Y = y
		y += ic.Height
		width = max(width, ic.Width)
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(width), num(y), num(width), num(y))
	for _, ic := range icons {
		fmt.Fprintf(&b, `<svg id="%s" y="%s" width="%s" height="%s" viewBox="%s">`,
			ic.Name, num(ic.Y), num(ic.Width), num(ic.Height), ic.ViewBox)
		b.Write(ic.inner)
		b.WriteString("</svg>")
	}
	b.WriteString("</svg>")
	return b.Bytes(), width, y
}

// Stylesheet renders the common .icon rule and one offset rule per icon.
func Stylesheet(icons []*Icon, sheetURL string, width, height float64) []byte {
	var b strings.Builder
	b.WriteString(".icon {\n")
	b.WriteString("  display: inline-block;\n")
	fmt.Fprintf(&b, "  background-image: url(%s);\n", sheetURL)
	b.WriteString("  background-repeat: no-repeat;\n")
	fmt.Fprintf(&b, "  background-size: %spx %spx;\n", num(width), num(height))
	b.WriteString("}\n")
	for _, ic := range icons {
		pos := "0"
		if ic.Y > 0 {
			pos = "-" + num(ic.Y) + "px"
		}
		fmt.Fprintf(&b, "\n.icon-%s {\n", ic.Name)
		fmt.Fprintf(&b, "  background-position: 0 %s;\n", pos)
		fmt.Fprintf(&b, "  width: %spx;\n", num(ic.Width))
		fmt.Fprintf(&b, "  height: %spx;\n", num(ic.Height))
		b.WriteString("}\n")
	}
	return []byte(b.String())
}

// SpriteStep stacks the incoming SVGs into cfg.Sheet under the stage
// destination and writes cfg.CSS relative to the project root. The sheet URL
// is cfg.URLTemplate with %f replaced by the sheet path.
func SpriteStep(cfg config.VectorsConfig) pipeline.Step {
	return pipeline.StepFunc{StepName: "svg-sprites", Fn: func(_ context.Context, files []*pipeline.File, rep *pipeline.Reporter) ([]*pipeline.File, error) {
		var icons []*Icon
		seen := make(map[string]bool)
		for _, f := range files {
			name := sprites.Slug(strings.TrimSuffix(path.Base(f.Rel), path.Ext(f.Rel)))
			if seen[name] {
				rep.Warn("svg-sprites", f, errors.TransformError("duplicate icon name").WithContext("name", name).Build())
				continue
			}
			icon, err := ParseIcon(name, f.Contents)
			if err != nil {
				rep.Warn("svg-sprites", f, errors.WrapError(err, errors.CategoryTransform, "invalid svg").Build())
				continue
			}
			if name == "" {
				rep.Warn("svg-sprites", f, errors.TransformError("empty icon name").Build())
				continue
			}
			seen[name] = true
			icons = append(icons, icon)
		}
		if len(icons) == 0 {
			return nil, nil
		}
		sheet, w, h := Sheet(icons)
		url := strings.ReplaceAll(cfg.URLTemplate, "%f", cfg.Sheet)
		return []*pipeline.File{
			{Rel: cfg.Sheet, Contents: sheet},
			{Target: cfg.CSS, Rel: path.Base(cfg.CSS), Contents: Stylesheet(icons, url, w, h)},
		}, nil
	}}
}
