package fonts

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/toolexec"
)

// OutlineConverter turns an OpenType (CFF outline) font into TrueType.
type OutlineConverter interface {
	ToTTF(ctx context.Context, otf []byte) ([]byte, error)
}

// FontForge converts through the fontforge scripting interface.
type FontForge struct {
	Tool *toolexec.Tool
}

// NewFontForge returns a converter running binary.
func NewFontForge(binary string) *FontForge {
	return &FontForge{Tool: toolexec.New(binary)}
}

const fontforgeScript = "Open($1); Generate($2)"

func (c *FontForge) ToTTF(ctx context.Context, otf []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "assetbuilder-otf-")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create scratch directory").Build()
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "in.otf")
	out := filepath.Join(dir, "out.ttf")
	if err := os.WriteFile(in, otf, 0o600); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write scratch file").Build()
	}
	if _, err := c.Tool.Run(ctx, nil, "-lang=ff", "-c", fontforgeScript, in, out); err != nil {
		return nil, err
	}
	ttf, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExternal, "converter produced no output").Build()
	}
	return ttf, nil
}
