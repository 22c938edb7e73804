package images

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/toolexec"
)

// Encoder converts a raster image to WebP. ext is the source extension and
// tells the encoder how to read data.
type Encoder interface {
	EncodeWebP(ctx context.Context, data []byte, ext string, quality int) ([]byte, error)
}

// CWebP encodes through the libwebp cwebp executable.
type CWebP struct {
	Tool *toolexec.Tool
}

// NewCWebP returns an encoder running binary.
func NewCWebP(binary string) *CWebP {
	return &CWebP{Tool: toolexec.New(binary)}
}

func (c *CWebP) EncodeWebP(ctx context.Context, data []byte, ext string, quality int) ([]byte, error) {
	dir, err := os.MkdirTemp("", "assetbuilder-webp-")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create scratch directory").Build()
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "in"+ext)
	out := filepath.Join(dir, "out.webp")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write scratch file").Build()
	}
	if _, err := c.Tool.Run(ctx, nil, "-quiet", "-q", strconv.Itoa(quality), in, "-o", out); err != nil {
		return nil, err
	}
	encoded, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExternal, "encoder produced no output").Build()
	}
	return encoded, nil
}
