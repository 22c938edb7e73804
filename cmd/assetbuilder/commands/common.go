// Package commands implements the assetbuilder command line.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/devserver"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

// Global is passed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the command tree and its global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"assetbuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Prod    bool             `help:"Minify styles and scripts"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Default ServeCmd `cmd:"" name:"default" default:"1" help:"Build, watch and serve the build directory with live reload"`
	Proxy   ProxyCmd `cmd:"" help:"Build, watch and proxy server.proxy with live reload"`

	Build      TaskCmd `cmd:"" help:"Clean, then build markup, styles, scripts, images and vectors in parallel"`
	HTML       TaskCmd `cmd:"" name:"html" help:"Expand includes in markup"`
	Style      TaskCmd `cmd:"" help:"Compile the stylesheet bundle"`
	JS         TaskCmd `cmd:"" name:"js" help:"Bundle scripts"`
	Img        TaskCmd `cmd:"" help:"Encode WebP variants and compress images"`
	SVG        TaskCmd `cmd:"" name:"svg" help:"Minify SVG files"`
	Spritesvg  TaskCmd `cmd:"" help:"Build the SVG sprite sheet and its stylesheet"`
	Spriteimg  TaskCmd `cmd:"" help:"Pack PNG icons into a sprite and its stylesheet"`
	OTF        TaskCmd `cmd:"" name:"otf" help:"Convert OpenType fonts to TrueType"`
	TTF        TaskCmd `cmd:"" name:"ttf" help:"Convert TrueType fonts to WOFF and WOFF2"`
	Fonts      TaskCmd `cmd:"" help:"Run otf, then ttf"`
	Clean      TaskCmd `cmd:"" help:"Remove generated assets except images, fonts and vectors"`
	Cleanimg   TaskCmd `cmd:"" help:"Remove generated images and the compression signature cache"`
	Cleanfonts TaskCmd `cmd:"" help:"Remove generated fonts"`

	Watch WatchCmd `cmd:"" help:"Rebuild each category when its sources change"`
	Graph GraphCmd `cmd:"" help:"Show the build graph (text, mermaid, dot, json)"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig reads the configuration and applies global flags. A relative
// project root is resolved against the configuration file's directory.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Root) {
		cfg = cfg.WithRoot(filepath.Join(filepath.Dir(c.Config), cfg.Root))
	}
	return cfg.WithProduction(c.Prod || cfg.Production), nil
}

// runtime holds the collaborators shared by long-running commands.
type runtime struct {
	cfg      *config.Config
	registry *orchestrator.Registry
	hub      *devserver.LiveReloadHub
	promReg  *prom.Registry
	closers  []func()
}

// newRuntime wires notifiers and the task registry. withServer adds live
// reload and, when enabled, Prometheus metrics.
func newRuntime(cli *CLI, withServer bool) (*runtime, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if withServer && cfg.Server.Metrics {
		rt.promReg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(rt.promReg)
	}
	notifiers := notify.Multi{notify.Metrics(recorder)}
	if withServer {
		rt.hub = devserver.NewLiveReloadHub(recorder)
		notifiers = append(notifiers, notify.LiveReload(rt.hub))
	}
	if cfg.Notify.NATS.URL != "" {
		pub, err := notify.ConnectNATS(cfg.Notify.NATS.URL, cfg.Notify.NATS.Subject)
		if err != nil {
			slog.Warn("Stage events will not be published", logfields.Error(err))
		} else {
			notifiers = append(notifiers, pub)
			rt.closers = append(rt.closers, pub.Close)
		}
	}

	rt.registry, err = orchestrator.NewRegistry(cfg, orchestrator.Options{Notifier: notifiers, Recorder: recorder})
	if err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) close() {
	for _, c := range rt.closers {
		c()
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
