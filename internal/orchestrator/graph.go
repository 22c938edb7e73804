package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// GraphFormat is an output format of the build graph.
type GraphFormat string

const (
	FormatText    GraphFormat = "text"
	FormatMermaid GraphFormat = "mermaid"
	FormatDOT     GraphFormat = "dot"
	FormatJSON    GraphFormat = "json"
)

// SupportedFormats lists the graph formats.
func SupportedFormats() []GraphFormat {
	return []GraphFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// FormatDescription describes a graph format.
func FormatDescription(f GraphFormat) string {
	return map[GraphFormat]string{
		FormatText:    "Indented tree",
		FormatMermaid: "Mermaid flowchart",
		FormatDOT:     "Graphviz DOT (render with `dot -Tpng build.dot -o build.png`)",
		FormatJSON:    "Nested JSON tree",
	}[f]
}

// Render draws t and its descendants.
func Render(t Task, format GraphFormat) (string, error) {
	switch format {
	case FormatText:
		return renderText(t), nil
	case FormatMermaid:
		return renderMermaid(t), nil
	case FormatDOT:
		return renderDOT(t), nil
	case FormatJSON:
		return renderJSON(t)
	default:
		return "", errors.ValidationError("unsupported graph format").WithContext("format", string(format)).Build()
	}
}

func label(t Task) string {
	switch t.Kind() {
	case KindSeries, KindParallel, KindClean:
		return fmt.Sprintf("%s (%s)", t.Name(), t.Kind())
	}
	return t.Name()
}

func renderText(t Task) string {
	var sb strings.Builder
	sb.WriteString(label(t) + "\n")
	var visit func(Task, string)
	visit = func(t Task, indent string) {
		children := t.Children()
		for i, c := range children {
			branch, next := "├── ", "│   "
			if i == len(children)-1 {
				branch, next = "└── ", "    "
			}
			sb.WriteString(indent + branch + label(c) + "\n")
			visit(c, indent+next)
		}
	}
	visit(t, "")
	return sb.String()
}

func nodeID(t Task) string {
	return strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(t.Name())
}

// edges yields parent-child pairs; series children carry their position.
func edges(t Task, fn func(parent, child Task, order int)) {
	Walk(t, func(p Task, _ int) {
		for i, c := range p.Children() {
			order := 0
			if p.Kind() == KindSeries {
				order = i + 1
			}
			fn(p, c, order)
		}
	})
}

func renderMermaid(t Task) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	Walk(t, func(n Task, _ int) {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", nodeID(n), label(n))
	})
	edges(t, func(p, c Task, order int) {
		if order > 0 {
			fmt.Fprintf(&sb, "    %s -->|%d| %s\n", nodeID(p), order, nodeID(c))
			return
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(p), nodeID(c))
	})
	return sb.String()
}

func renderDOT(t Task) string {
	var sb strings.Builder
	sb.WriteString("digraph build {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")
	Walk(t, func(n Task, _ int) {
		shape := "box"
		if len(n.Children()) > 0 {
			shape = "ellipse"
		}
		fmt.Fprintf(&sb, "    %q [label=%q, shape=%s];\n", n.Name(), label(n), shape)
	})
	sb.WriteString("\n")
	edges(t, func(p, c Task, order int) {
		if order > 0 {
			fmt.Fprintf(&sb, "    %q -> %q [label=\"%d\"];\n", p.Name(), c.Name(), order)
			return
		}
		fmt.Fprintf(&sb, "    %q -> %q;\n", p.Name(), c.Name())
	})
	sb.WriteString("}\n")
	return sb.String()
}

type graphNode struct {
	Name     string      `json:"name"`
	Kind     Kind        `json:"kind"`
	Children []graphNode `json:"children,omitempty"`
}

func toNode(t Task) graphNode {
	n := graphNode{Name: t.Name(), Kind: t.Kind()}
	for _, c := range t.Children() {
		n.Children = append(n.Children, toNode(c))
	}
	return n
}

func renderJSON(t Task) (string, error) {
	data, err := json.MarshalIndent(toNode(t), "", "  ")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode graph").Build()
	}
	return string(data) + "\n", nil
}
