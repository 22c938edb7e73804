package sprites

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
)

func TestSlug(t *testing.T) {
	require.Equal(t, "cafe-creme", Slug("Café Crème"))
	require.Equal(t, "arrow-left", Slug("arrow--left!"))
	require.Equal(t, "icon_2x", Slug("icon_2x"))
	require.Equal(t, "", Slug("---"))
}

func TestPackIsDeterministicAndNonOverlapping(t *testing.T) {
	mk := func() []*Block {
		return []*Block{
			{Name: "c", W: 10, H: 10},
			{Name: "a", W: 32, H: 16},
			{Name: "b", W: 16, H: 32},
			{Name: "d", W: 8, H: 8},
			{Name: "e", W: 8, H: 8},
		}
	}
	first := mk()
	w, h := Pack(first, 2)
	second := mk()
	// reversed input order must not change the layout
	for i, j := 0, len(second)-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}
	w2, h2 := Pack(second, 2)
	require.Equal(t, w, w2)
	require.Equal(t, h, h2)

	pos := map[string][2]int{}
	for _, b := range first {
		pos[b.Name] = [2]int{b.X, b.Y}
	}
	for _, b := range second {
		require.Equal(t, pos[b.Name], [2]int{b.X, b.Y}, b.Name)
	}

	for i, a := range first {
		require.LessOrEqual(t, a.X+a.W, w)
		require.LessOrEqual(t, a.Y+a.H, h)
		for _, b := range first[i+1:] {
			overlap := a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
			require.False(t, overlap, "%s overlaps %s", a.Name, b.Name)
		}
	}
}

func TestPackSingleBlock(t *testing.T) {
	b := &Block{Name: "x", W: 5, H: 7}
	w, h := Pack([]*Block{b}, 3)
	require.Equal(t, 5, w)
	require.Equal(t, 7, h)
	require.Zero(t, b.X)
	require.Zero(t, b.Y)
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestSpriteStage(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src", "img", "sprite")
	writePNG(t, filepath.Join(dir, "home.png"), 16, 16, color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "Sök.png"), 24, 24, color.NRGBA{G: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o644))

	cfg := config.Default()
	cfg.Root = root
	res, err := NewStage(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Warnings)
	require.Equal(t, []string{"src/img/common/sprite.png", "src/style/lib/sprite.css"}, res.Written)

	f, err := os.Open(filepath.Join(root, "src", "img", "common", "sprite.png"))
	require.NoError(t, err)
	defer f.Close()
	sheet, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 40, sheet.Bounds().Dx())
	require.Equal(t, 24, sheet.Bounds().Dy())

	css, err := os.ReadFile(filepath.Join(root, "src", "style", "lib", "sprite.css"))
	require.NoError(t, err)
	require.Equal(t, ".icon-home {\n"+
		"  background-image: url(../img/common/sprite.png);\n"+
		"  background-position: -24px 0;\n"+
		"  width: 16px;\n"+
		"  height: 16px;\n"+
		"}\n\n"+
		".icon-sok {\n"+
		"  background-image: url(../img/common/sprite.png);\n"+
		"  background-position: 0 0;\n"+
		"  width: 24px;\n"+
		"  height: 24px;\n"+
		"}\n", string(css))

	r, _, _, _ := sheet.At(30, 5).RGBA()
	require.NotZero(t, r, "home icon drawn at its offset")
}
