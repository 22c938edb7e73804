// Package fileset resolves glob patterns against a project root.
//
// Patterns use '/' as separator regardless of platform. A '*' never crosses a
// directory boundary, '**' does, and '**/' also matches zero directories, so
// "src/**/*.scss" matches both "src/a.scss" and "src/x/y/a.scss". A leading '!'
// negates a pattern.
package fileset

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled glob with its static base directory.
type Pattern struct {
	Raw    string
	Base   string
	Negate bool
	globs  []glob.Glob
}

// Compile parses a single pattern.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{Raw: raw}
	expr := raw
	if strings.HasPrefix(expr, "!") {
		p.Negate = true
		expr = expr[1:]
	}
	expr = strings.TrimPrefix(path.Clean("/"+expr), "/")
	p.Base = StaticBase(expr)

	for _, variant := range globstarVariants(expr) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, err
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// MustCompile is Compile for patterns known to be valid.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether a slash-separated path relative to the root matches.
// Negation is not applied here.
func (p *Pattern) Match(rel string) bool {
	rel = strings.TrimPrefix(rel, "./")
	for _, g := range p.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Literal reports whether the pattern names a single path without glob syntax.
func (p *Pattern) Literal() bool {
	return !hasMeta(strings.TrimPrefix(p.Raw, "!"))
}

// Expr returns the cleaned pattern without its negation prefix.
func (p *Pattern) Expr() string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(p.Raw, "!")), "/")
}

// StaticBase returns the directory prefix of a pattern that contains no glob
// syntax. For a literal file path it is the parent directory.
func StaticBase(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "!")
	segments := strings.Split(pattern, "/")
	var base []string
	for i, seg := range segments {
		if hasMeta(seg) || i == len(segments)-1 {
			break
		}
		base = append(base, seg)
	}
	if len(base) == 0 {
		return "."
	}
	return strings.Join(base, "/")
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[]{}\\")
}

// globstarVariants expands every '**' segment into the two spellings that
// together match zero or more directories: "a/**/b" yields "a/**/b" and "a/b".
func globstarVariants(expr string) []string {
	variants := [][]string{nil}
	for _, seg := range strings.Split(expr, "/") {
		next := make([][]string, 0, len(variants)*2)
		for _, v := range variants {
			next = append(next, append(append([]string(nil), v...), seg))
			if seg == "**" {
				next = append(next, append([]string(nil), v...))
			}
		}
		variants = next
	}
	out := make([]string, 0, len(variants))
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		joined := strings.Join(v, "/")
		if joined == "" || seen[joined] {
			continue
		}
		seen[joined] = true
		out = append(out, joined)
	}
	return out
}
