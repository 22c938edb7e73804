package commands

import (
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
	"git.home.luguber.info/inful/assetbuilder/internal/watch"
)

// WatchCmd watches sources without serving.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	rt, err := newRuntime(root, false)
	if err != nil {
		return err
	}
	defer rt.close()

	watcher, err := newWatcher(rt)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return watcher.Run(ctx)
}

func newWatcher(rt *runtime) (*watch.Watcher, error) {
	bindings, err := watch.Bindings(rt.cfg, rt.registry)
	if err != nil {
		return nil, err
	}
	build, err := rt.registry.Task(orchestrator.BuildTaskName)
	if err != nil {
		return nil, err
	}
	return watch.New(rt.cfg.Root, bindings, rt.registry.Execute, watch.Options{
		Quiet:       rt.cfg.Watch.Debounce,
		FullRebuild: rt.cfg.Watch.FullRebuildInterval,
		Rebuild:     build,
	}), nil
}
