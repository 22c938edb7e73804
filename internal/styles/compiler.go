package styles

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/sourcemap"
	"git.home.luguber.info/inful/assetbuilder/internal/toolexec"
)

// Compiler turns the concatenated stylesheet into CSS. The returned map, when
// not nil, maps the CSS back to positions in src.
type Compiler interface {
	Compile(ctx context.Context, src []byte, loadPaths []string) ([]byte, *sourcemap.Map, error)
}

// NewCompiler returns the compiler selected by cfg.Styles.Compiler.
func NewCompiler(cfg *config.Config) Compiler {
	if cfg.Styles.Compiler == config.CompilerPassthrough {
		return Passthrough{}
	}
	tool := toolexec.New(cfg.Styles.Sass)
	tool.Dir = cfg.Root
	return &SassBinary{Tool: tool, LoadPaths: cfg.Styles.LoadPaths}
}

// Passthrough returns its input unchanged, for plain CSS projects.
type Passthrough struct{}

func (Passthrough) Compile(_ context.Context, src []byte, _ []string) ([]byte, *sourcemap.Map, error) {
	return src, nil, nil
}

// SassBinary compiles through the Dart Sass executable reading stdin.
type SassBinary struct {
	Tool      *toolexec.Tool
	LoadPaths []string
}

const sourceMapMarker = "/*# sourceMappingURL="

func (s *SassBinary) Compile(ctx context.Context, src []byte, loadPaths []string) ([]byte, *sourcemap.Map, error) {
	args := []string{"--stdin", "--style=expanded", "--no-charset", "--embed-source-map"}
	for _, p := range append(append([]string(nil), s.LoadPaths...), loadPaths...) {
		args = append(args, "--load-path="+p)
	}
	out, err := s.Tool.Run(ctx, src, args...)
	if err != nil {
		if stderrors.Is(err, toolexec.ErrBinaryNotFound) {
			return nil, nil, err
		}
		return nil, nil, errors.WrapError(err, errors.CategoryTransform, "sass compilation failed").Build()
	}
	css, m, err := splitEmbeddedMap(out)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryTransform, "invalid sass source map").Build()
	}
	if m != nil {
		m = stdinOnly(m, src)
	}
	return css, m, nil
}

// splitEmbeddedMap strips a trailing data-URL source map comment from css.
func splitEmbeddedMap(out []byte) ([]byte, *sourcemap.Map, error) {
	idx := bytes.LastIndex(out, []byte(sourceMapMarker))
	if idx < 0 {
		return out, nil, nil
	}
	ref := out[idx+len(sourceMapMarker):]
	if end := bytes.Index(ref, []byte("*/")); end >= 0 {
		ref = ref[:end]
	}
	raw := strings.TrimSpace(string(ref))
	css := bytes.TrimRight(out[:idx], "\n")
	css = append(css, '\n')
	if !strings.HasPrefix(raw, "data:") {
		return css, nil, nil
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return css, nil, nil
	}
	meta, payload := raw[:comma], raw[comma+1:]
	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, nil, err
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, nil, err
		}
		data = []byte(unescaped)
	}
	m, err := sourcemap.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return css, m, nil
}

// stdinOnly keeps the segments that point into the piped input. Segments into
// imported partials cannot be composed with the concatenation map.
func stdinOnly(m *sourcemap.Map, src []byte) *sourcemap.Map {
	idx := -1
	for i := range m.Sources {
		if i < len(m.SourcesContent) && m.SourcesContent[i] == string(src) {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, s := range m.Sources {
			if s == "-" || strings.Contains(s, "stdin") {
				idx = i
				break
			}
		}
	}
	if idx < 0 && len(m.Sources) == 1 {
		idx = 0
	}
	out := &sourcemap.Map{File: m.File, Sources: []string{"stdin"}, Lines: make([][]sourcemap.Segment, len(m.Lines))}
	for l, segs := range m.Lines {
		for _, s := range segs {
			if s.Src == idx && idx >= 0 {
				s.Src = 0
				out.Lines[l] = append(out.Lines[l], s)
			}
		}
	}
	return out
}
