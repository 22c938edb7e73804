package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

// GraphCmd renders the build graph of a task.
type GraphCmd struct {
	Task   string `arg:"" optional:"" default:"build" help:"Task to draw"`
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string `short:"o" help:"Output file path (prints to stdout if not specified)"`
	List   bool   `short:"l" help:"List available formats and tasks and exit"`

	out io.Writer
}

func (g *GraphCmd) Run(_ *Global, root *CLI) error {
	w := g.out
	if w == nil {
		w = os.Stdout
	}
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	reg, err := orchestrator.NewRegistry(cfg, orchestrator.Options{})
	if err != nil {
		return err
	}

	if g.List {
		_, _ = fmt.Fprintln(w, "Formats:")
		for _, f := range orchestrator.SupportedFormats() {
			_, _ = fmt.Fprintf(w, "  %-10s %s\n", f, orchestrator.FormatDescription(f))
		}
		_, _ = fmt.Fprintln(w, "Tasks:")
		for _, name := range reg.Names() {
			_, _ = fmt.Fprintf(w, "  %s\n", name)
		}
		return nil
	}

	task, err := reg.Task(g.Task)
	if err != nil {
		return err
	}
	out, err := orchestrator.Render(task, orchestrator.GraphFormat(g.Format))
	if err != nil {
		return err
	}
	if g.Output == "" {
		_, err = io.WriteString(w, out)
		return err
	}
	if err := os.WriteFile(g.Output, []byte(out), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write graph").
			WithContext("path", g.Output).Build()
	}
	slog.Info("Build graph written", "file", g.Output, "format", g.Format)
	return nil
}
