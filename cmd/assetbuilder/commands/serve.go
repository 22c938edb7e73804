package commands

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/devserver"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

// ServeCmd builds, then watches and serves the build directory.
type ServeCmd struct {
	Port int `short:"p" help:"Override server.port"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	return develop(root, config.ServerModeStatic, s.Port, "")
}

// ProxyCmd builds, then watches and proxies an upstream server.
type ProxyCmd struct {
	Port   int    `short:"p" help:"Override server.port"`
	Target string `arg:"" optional:"" help:"Upstream address; overrides server.proxy"`
}

func (p *ProxyCmd) Run(_ *Global, root *CLI) error {
	return develop(root, config.ServerModeProxy, p.Port, p.Target)
}

func develop(root *CLI, mode config.ServerMode, port int, target string) error {
	rt, err := newRuntime(root, true)
	if err != nil {
		return err
	}
	defer rt.close()

	var opts devserver.Options
	if rt.promReg != nil {
		opts.Metrics = metrics.HTTPHandler(rt.promReg)
	}
	srv, err := devserver.New(serverConfig(rt.cfg, mode, port, target), rt.hub, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := rt.registry.Run(ctx, orchestrator.BuildTaskName); err != nil {
		// the server still starts so fixes can be picked up by the watcher
		slog.Warn("Initial build failed; serving previous output", logfields.Error(err))
	}

	w, err := newWatcher(rt)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return w.Run(gctx) })
	return g.Wait()
}

// serverConfig derives the dev server configuration from command flags.
func serverConfig(cfg *config.Config, mode config.ServerMode, port int, target string) *config.Config {
	s := cfg.Server
	s.Mode = mode
	if port != 0 {
		s.Port = port
	}
	if target != "" {
		s.Proxy = target
	}
	return cfg.WithServer(s)
}
