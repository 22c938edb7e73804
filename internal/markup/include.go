package markup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Directive prefix shared by every include marker and context variable.
const Prefix = "@@"

type directiveKind int

const (
	directiveInclude directiveKind = iota
	directiveIncludeOnce
	directiveMarkdown
)

var directives = []struct {
	name string
	kind directiveKind
}{
	// include_once first: "include" is a prefix of it.
	{"include_once", directiveIncludeOnce},
	{"include", directiveInclude},
	{"markdown", directiveMarkdown},
}

// Includer expands include directives. Paths are resolved relative to the
// directory of the file containing the directive.
type Includer struct {
	md goldmark.Markdown
	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// NewIncluder returns an includer rendering Markdown partials with goldmark.
func NewIncluder() *Includer {
	return &Includer{md: goldmark.New(), ReadFile: os.ReadFile}
}

type expansion struct {
	stack []string
	once  map[string]bool
}

// Expand resolves every directive in content, which was read from path.
func (in *Includer) Expand(path string, content []byte) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	x := &expansion{stack: []string{abs}, once: make(map[string]bool)}
	return in.expand(x, abs, content, nil)
}

func (in *Includer) expand(x *expansion, path string, content []byte, vars map[string]any) ([]byte, error) {
	content = substitute(content, vars)

	var out bytes.Buffer
	rest := content
	for {
		idx := bytes.Index(rest, []byte(Prefix))
		if idx < 0 {
			out.Write(rest)
			break
		}
		out.Write(rest[:idx])
		after := rest[idx+len(Prefix):]

		kind, name, ok := matchDirective(after)
		if !ok {
			out.WriteString(Prefix)
			rest = after
			continue
		}
		target, args, consumed, err := parseCall(after[len(name):])
		if err != nil {
			return nil, errors.TransformError("malformed directive").
				WithCause(err).WithContext("file", path).WithContext("directive", name).Build()
		}
		rest = after[len(name)+consumed:]

		resolved := filepath.Join(filepath.Dir(path), filepath.FromSlash(target))
		expanded, err := in.resolve(x, kind, resolved, mergeVars(vars, args))
		if err != nil {
			return nil, err
		}
		out.Write(expanded)
	}
	return out.Bytes(), nil
}

func (in *Includer) resolve(x *expansion, kind directiveKind, path string, vars map[string]any) ([]byte, error) {
	for _, p := range x.stack {
		if p == path {
			return nil, errors.TransformError("include cycle").
				WithContext("file", path).WithContext("chain", strings.Join(append(x.stack, path), " -> ")).Build()
		}
	}
	if kind == directiveIncludeOnce {
		if x.once[path] {
			return nil, nil
		}
		x.once[path] = true
	}

	data, err := in.ReadFile(path)
	if err != nil {
		return nil, errors.TransformError("included file not readable").
			WithCause(err).WithContext("file", path).Build()
	}

	if kind == directiveMarkdown {
		var buf bytes.Buffer
		if err := in.md.Convert(substitute(data, vars), &buf); err != nil {
			return nil, errors.TransformError("markdown render failed").
				WithCause(err).WithContext("file", path).Build()
		}
		return buf.Bytes(), nil
	}

	x.stack = append(x.stack, path)
	defer func() { x.stack = x.stack[:len(x.stack)-1] }()
	return in.expand(x, path, data, vars)
}

func matchDirective(b []byte) (directiveKind, string, bool) {
	for _, d := range directives {
		if bytes.HasPrefix(b, []byte(d.name)) {
			tail := bytes.TrimLeft(b[len(d.name):], " \t")
			if len(tail) > 0 && tail[0] == '(' {
				return d.kind, d.name, true
			}
		}
	}
	return 0, "", false
}

// parseCall parses `('path'[, {json}])` and returns the number of bytes consumed.
func parseCall(b []byte) (string, map[string]any, int, error) {
	i := skipSpace(b, 0)
	if i >= len(b) || b[i] != '(' {
		return "", nil, 0, fmt.Errorf("expected '('")
	}
	i = skipSpace(b, i+1)
	if i >= len(b) || (b[i] != '\'' && b[i] != '"') {
		return "", nil, 0, fmt.Errorf("expected quoted path")
	}
	quote := b[i]
	end := bytes.IndexByte(b[i+1:], quote)
	if end < 0 {
		return "", nil, 0, fmt.Errorf("unterminated path")
	}
	target := string(b[i+1 : i+1+end])
	if target == "" {
		return "", nil, 0, fmt.Errorf("empty path")
	}
	i = skipSpace(b, i+end+2)

	var args map[string]any
	if i < len(b) && b[i] == ',' {
		i = skipSpace(b, i+1)
		dec := json.NewDecoder(bytes.NewReader(b[i:]))
		if err := dec.Decode(&args); err != nil {
			return "", nil, 0, fmt.Errorf("invalid context object: %w", err)
		}
		i = skipSpace(b, i+int(dec.InputOffset()))
	}
	if i >= len(b) || b[i] != ')' {
		return "", nil, 0, fmt.Errorf("expected ')'")
	}
	return target, args, i + 1, nil
}

func skipSpace(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}

func mergeVars(parent, child map[string]any) map[string]any {
	if len(child) == 0 {
		return parent
	}
	out := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

// substitute replaces @@name (and @@name.field for nested objects) with the
// context values. Longer names are replaced first so @@title does not clobber
// @@titleColor.
func substitute(content []byte, vars map[string]any) []byte {
	if len(vars) == 0 {
		return content
	}
	flat := make(map[string]string)
	flatten("", vars, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, Prefix+k, flat[k])
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(content)))
}

func flatten(prefix string, v map[string]any, out map[string]string) {
	for k, val := range v {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch tv := val.(type) {
		case string:
			out[key] = tv
		case map[string]any:
			flatten(key, tv, out)
		case nil:
			out[key] = ""
		default:
			data, err := json.Marshal(tv)
			if err != nil {
				out[key] = fmt.Sprint(tv)
				continue
			}
			out[key] = string(data)
		}
	}
}
