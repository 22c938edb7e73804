package fileset

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Match is one file selected by a pattern list.
type Match struct {
	// Path is the OS path of the file (root joined with the relative path).
	Path string
	// Base is the OS path of the static base of the pattern that matched first.
	Base string
	// Rel is the slash-separated path of the file relative to Base.
	Rel string
}

// Resolve expands patterns relative to root. Results follow pattern order,
// lexical within a pattern; a file matched by several patterns appears once at
// its first position. Negated patterns remove files matched by any other
// pattern. Hidden files and directories are skipped. A pattern whose base does
// not exist contributes nothing.
func Resolve(root string, patterns []string) ([]Match, error) {
	set, err := NewSet(patterns)
	if err != nil {
		return nil, err
	}
	return set.Resolve(root)
}

// Set is a compiled pattern list with include and exclude semantics.
type Set struct {
	include []*Pattern
	exclude []*Pattern
}

// NewSet compiles patterns.
func NewSet(patterns []string) (*Set, error) {
	s := &Set{}
	for _, raw := range patterns {
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		if p.Negate {
			s.exclude = append(s.exclude, p)
		} else {
			s.include = append(s.include, p)
		}
	}
	return s, nil
}

// Match reports whether a slash path relative to the root is included and not excluded.
func (s *Set) Match(rel string) bool {
	rel = path.Clean(strings.TrimPrefix(rel, "./"))
	if s.Excluded(rel) {
		return false
	}
	for _, p := range s.include {
		if p.Match(rel) {
			return true
		}
	}
	return false
}

// Excluded reports whether a negated pattern matches rel.
func (s *Set) Excluded(rel string) bool {
	for _, p := range s.exclude {
		if p.Match(rel) {
			return true
		}
	}
	return false
}

// Bases returns the distinct static bases of the include patterns in order.
func (s *Set) Bases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.include {
		if !seen[p.Base] {
			seen[p.Base] = true
			out = append(out, p.Base)
		}
	}
	return out
}

// Resolve walks the base of every include pattern under root.
func (s *Set) Resolve(root string) ([]Match, error) {
	seen := make(map[string]bool)
	var out []Match
	for _, p := range s.include {
		baseDir := filepath.Join(root, filepath.FromSlash(p.Base))
		if _, err := os.Stat(baseDir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(baseDir, func(osPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if osPath != baseDir && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			relRoot, err := filepath.Rel(root, osPath)
			if err != nil {
				return err
			}
			rel := filepath.ToSlash(relRoot)
			if seen[rel] || !p.Match(rel) || s.Excluded(rel) {
				return nil
			}
			seen[rel] = true
			relBase, err := filepath.Rel(baseDir, osPath)
			if err != nil {
				return err
			}
			out = append(out, Match{Path: osPath, Base: baseDir, Rel: filepath.ToSlash(relBase)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
