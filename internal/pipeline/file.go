package pipeline

import (
	"path"

	"git.home.luguber.info/inful/assetbuilder/internal/sourcemap"
)

// File is one unit flowing through a stage. Rel is the slash path relative to
// the glob base of the source; it becomes the output path under the stage
// destination. A non-empty Target places the output relative to the project
// root instead.
type File struct {
	Path     string
	Base     string
	Rel      string
	Target   string
	Contents []byte
	Map      *sourcemap.Map
}

// Clone returns a copy whose contents can be modified independently.
func (f *File) Clone() *File {
	cp := *f
	cp.Contents = append([]byte(nil), f.Contents...)
	return &cp
}

// Derive returns a new file at rel with contents, keeping the source identity.
func (f *File) Derive(rel string, contents []byte) *File {
	return &File{Path: f.Path, Base: f.Base, Rel: rel, Contents: contents}
}

// Ext returns the extension of Rel including the dot.
func (f *File) Ext() string {
	return path.Ext(f.Rel)
}

// WithExt returns Rel with its extension replaced.
func (f *File) WithExt(ext string) string {
	return f.Rel[:len(f.Rel)-len(path.Ext(f.Rel))] + ext
}

// Name identifies the file in logs: the source path, or Rel for generated files.
func (f *File) Name() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Rel
}
