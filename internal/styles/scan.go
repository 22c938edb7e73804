package styles

import (
	"bytes"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// decl is one property declaration inside a block. Offsets index the original
// source; end excludes the terminating semicolon.
type decl struct {
	start, end int
	valueStart int
	prop       string
}

// rule is a block opened by '{'. prelude is the selector list or at-rule text.
type rule struct {
	prelude string
	at      bool
	nested  bool
	open    int
	close   int
	decls   []decl
}

// scanRules lists every block of a stylesheet in the order the blocks close.
// SCSS line comments are masked before lexing so that quotes or braces inside
// them do not disturb the block structure.
func scanRules(src []byte) []rule {
	masked := maskLineComments(src)
	l := css.NewLexer(parse.NewInputBytes(masked))

	var (
		stack     []*rule
		out       []rule
		pos       int
		stmtStart = -1
		stmtEnd   int
	)
	closeStmt := func() {
		if stmtStart >= 0 && len(stack) > 0 {
			if d, ok := parseDecl(src, stmtStart, stmtEnd); ok {
				top := stack[len(stack)-1]
				top.decls = append(top.decls, d)
			}
		}
		stmtStart = -1
	}

	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		start := pos
		pos += len(data)
		switch tt {
		case css.WhitespaceToken, css.CommentToken:
		case css.LeftBraceToken:
			prelude := ""
			if stmtStart >= 0 {
				prelude = strings.TrimSpace(string(src[stmtStart:stmtEnd]))
			}
			r := &rule{prelude: prelude, at: strings.HasPrefix(prelude, "@"), open: start}
			if n := len(stack); n > 0 && !stack[n-1].at {
				r.nested = true
			}
			stack = append(stack, r)
			stmtStart = -1
		case css.SemicolonToken:
			closeStmt()
		case css.RightBraceToken:
			closeStmt()
			if n := len(stack); n > 0 {
				r := stack[n-1]
				stack = stack[:n-1]
				r.close = start
				out = append(out, *r)
			}
		default:
			if stmtStart < 0 {
				stmtStart = start
			}
			stmtEnd = pos
		}
	}
	return out
}

func parseDecl(src []byte, start, end int) (decl, bool) {
	text := src[start:end]
	colon := bytes.IndexByte(text, ':')
	if colon <= 0 {
		return decl{}, false
	}
	prop := strings.TrimSpace(string(text[:colon]))
	if !isPropertyName(prop) {
		return decl{}, false
	}
	vs := start + colon + 1
	for vs < end && (src[vs] == ' ' || src[vs] == '\t' || src[vs] == '\n' || src[vs] == '\r') {
		vs++
	}
	return decl{start: start, end: end, valueStart: vs, prop: strings.ToLower(prop)}, true
}

func isPropertyName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// maskLineComments blanks `//` comments outside strings, parentheses and block
// comments, keeping every offset and newline in place.
func maskLineComments(src []byte) []byte {
	out := append([]byte(nil), src...)
	var quote byte
	depth := 0
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			end := bytes.Index(out[i+2:], []byte("*/"))
			if end < 0 {
				return out
			}
			i += end + 3
		case c == '/' && i+1 < len(out) && out[i+1] == '/' && depth == 0:
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		}
	}
	return out
}

type insertion struct {
	at   int
	text string
}

func applyInsertions(src []byte, ins []insertion) []byte {
	if len(ins) == 0 {
		return src
	}
	sort.SliceStable(ins, func(i, j int) bool { return ins[i].at < ins[j].at })
	var buf bytes.Buffer
	buf.Grow(len(src))
	last := 0
	for _, in := range ins {
		buf.Write(src[last:in.at])
		buf.WriteString(in.text)
		last = in.at
	}
	buf.Write(src[last:])
	return buf.Bytes()
}

// splitSelectors splits a selector list on top-level commas.
func splitSelectors(prelude string) []string {
	var parts []string
	depth, last := 0, 0
	for i, r := range prelude {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, oneLine(prelude[last:i]))
				last = i + 1
			}
		}
	}
	return append(parts, oneLine(prelude[last:]))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
