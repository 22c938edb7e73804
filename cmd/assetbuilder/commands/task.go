package commands

import (
	"github.com/alecthomas/kong"
)

// TaskCmd runs the registry task named like the selected command.
type TaskCmd struct{}

func (t *TaskCmd) Run(_ *Global, root *CLI, kctx *kong.Context) error {
	rt, err := newRuntime(root, false)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := signalContext()
	defer cancel()
	return rt.registry.Run(ctx, kctx.Selected().Name)
}
