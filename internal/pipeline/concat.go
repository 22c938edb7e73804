package pipeline

import (
	"bytes"
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/assetbuilder/internal/sourcemap"
)

// Concat joins every file, in resolution order and separated by "\n", into a
// single file named artifact. The result carries a line map back to the
// inputs, whose sources are named relative to root. No input yields no output.
func Concat(artifact, root string) Step {
	return StepFunc{StepName: "concat", Fn: func(_ context.Context, files []*File, _ *Reporter) ([]*File, error) {
		if len(files) == 0 {
			return nil, nil
		}
		var buf bytes.Buffer
		m := sourcemap.NewConcat(artifact)
		for i, f := range files {
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(f.Contents)
			if f.Map != nil {
				m.AddMapped(f.Contents, f.Map)
			} else {
				m.Add(sourceName(root, f), f.Contents)
			}
		}
		return []*File{{Rel: artifact, Contents: buf.Bytes(), Map: m.Map()}}, nil
	}}
}

func sourceName(root string, f *File) string {
	if f.Path == "" {
		return f.Rel
	}
	if rel, err := filepath.Rel(root, f.Path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(f.Path)
}
