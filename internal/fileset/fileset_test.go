package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
}

func TestStaticBase(t *testing.T) {
	cases := map[string]string{
		"src/index.html":             "src",
		"src/style/variables/*.scss": "src/style/variables",
		"src/tpl/**/*.scss":          "src/tpl",
		"build/assets/**":            "build/assets",
		"!build/assets/img/**":       "build/assets/img",
		"*.html":                     ".",
		"src/{a,b}/*.js":             "src",
	}
	for pattern, want := range cases {
		require.Equal(t, want, StaticBase(pattern), pattern)
	}
}

func TestPatternGlobstarMatchesZeroDirectories(t *testing.T) {
	p := MustCompile("src/tpl/**/*.scss")
	require.True(t, p.Match("src/tpl/a.scss"))
	require.True(t, p.Match("src/tpl/x/y/a.scss"))
	require.False(t, p.Match("src/tpl/a.css"))
	require.False(t, p.Match("src/other/a.scss"))

	star := MustCompile("src/*.html")
	require.True(t, star.Match("src/index.html"))
	require.False(t, star.Match("src/tpl/index.html"))

	trailing := MustCompile("build/assets/**")
	require.True(t, trailing.Match("build/assets"))
	require.True(t, trailing.Match("build/assets/style/style.min.css"))
	require.False(t, trailing.Match("build/index.html"))
}

func TestSetNegation(t *testing.T) {
	s, err := NewSet([]string{"build/assets/**", "!build/assets", "!build/assets/img/**"})
	require.NoError(t, err)

	require.True(t, s.Match("build/assets/js/main.min.js"))
	require.False(t, s.Match("build/assets"))
	require.False(t, s.Match("build/assets/img"))
	require.False(t, s.Match("build/assets/img/logo.png"))
	require.Equal(t, []string{"build/assets"}, s.Bases())
}

func TestResolveOrderAndDedup(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"src/style/variables/b.scss",
		"src/style/variables/a.scss",
		"src/style/lib/reset.css",
		"src/tpl/header/header.scss",
		"src/tpl/footer.scss",
		"src/style/lib/.hidden.css",
	)

	matches, err := Resolve(root, []string{
		"src/style/variables/*.scss",
		"src/style/lib/*.*",
		"src/tpl/**/*.scss",
		"src/style/variables/a.scss",
	})
	require.NoError(t, err)

	var rels []string
	for _, m := range matches {
		rel, err := filepath.Rel(root, m.Path)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	require.Equal(t, []string{
		"src/style/variables/a.scss",
		"src/style/variables/b.scss",
		"src/style/lib/reset.css",
		"src/tpl/footer.scss",
		"src/tpl/header/header.scss",
	}, rels)

	require.Equal(t, "header/header.scss", matches[4].Rel)
	require.Equal(t, filepath.Join(root, "src", "tpl"), matches[4].Base)
}

func TestResolveLiteralFileKeepsNameRelativeToParent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/index.html")

	matches, err := Resolve(root, []string{"src/index.html"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "index.html", matches[0].Rel)
}

func TestResolveMissingBaseIsEmpty(t *testing.T) {
	matches, err := Resolve(t.TempDir(), []string{"src/img/**/*.*"})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestResolveAppliesExclusions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/img/a.png", "src/img/sprite/icon.png")

	matches, err := Resolve(root, []string{"src/img/**/*.*", "!src/img/sprite/**"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a.png", matches[0].Rel)
}


func TestPatternLiteral(t *testing.T) {
	require.True(t, MustCompile(".tinypng-sigs").Literal())
	require.True(t, MustCompile("build/assets/img/").Literal())
	require.Equal(t, "build/assets/img", MustCompile("build/assets/img/").Expr())
	require.Equal(t, "build/assets", MustCompile("!build/assets").Expr())
	require.False(t, MustCompile("build/assets/**").Literal())
	require.False(t, MustCompile("src/{a,b}").Literal())
}
