// Package devserver serves the build output, or proxies an upstream site, and
// reloads connected browsers after every stage that changed output.
package devserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Infrastructure endpoints.
const (
	HealthPath  = "/__health"
	MetricsPath = "/__metrics"
)

// Server is the development HTTP server.
type Server struct {
	mode    config.ServerMode
	addr    string
	hub     *LiveReloadHub
	handler http.Handler
	running atomic.Bool
	bound   atomic.Value
}

// Options configures optional endpoints.
type Options struct {
	// Metrics, when set, is served at /__metrics.
	Metrics http.Handler
}

// New builds a server for cfg. Proxy mode requires server.proxy.
func New(cfg *config.Config, hub *LiveReloadHub, opts Options) (*Server, error) {
	var site http.Handler
	switch cfg.Server.Mode {
	case config.ServerModeStatic:
		dir := cfg.Server.Root
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Root, dir)
		}
		site = http.FileServer(http.Dir(dir))
	case config.ServerModeProxy:
		p, err := newProxy(cfg.Server.Proxy)
		if err != nil {
			return nil, err
		}
		site = p
	default:
		return nil, errors.ConfigError("unknown server mode").WithContext("mode", string(cfg.Server.Mode)).Build()
	}

	s := &Server{mode: cfg.Server.Mode, addr: cfg.Addr(), hub: hub}
	mux := http.NewServeMux()
	mux.Handle(LiveReloadPath, hub)
	mux.HandleFunc(LiveReloadScript, serveScript)
	mux.HandleFunc(HealthPath, s.health)
	if opts.Metrics != nil {
		mux.Handle(MetricsPath, opts.Metrics)
	}
	mux.Handle("/", injectLiveReload(site))
	s.handler = chain(errors.NewHTTPErrorAdapter(slog.Default()), mux)
	return s, nil
}

func newProxy(target string) (*httputil.ReverseProxy, error) {
	if target == "" {
		return nil, errors.ConfigError("proxy mode requires server.proxy").Build()
	}
	if u, err := url.Parse(target); err == nil && u.Scheme == "" {
		target = "http://" + target
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, errors.ConfigError("invalid proxy target").WithContext("proxy", target).Build()
	}
	adapter := errors.NewHTTPErrorAdapter(slog.Default())
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			// HTML must arrive uncompressed for script injection
			pr.Out.Header.Del("Accept-Encoding")
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			adapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryNetwork, "upstream unavailable").
				WithContext("upstream", u.String()).Build())
		},
	}, nil
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler { return s.handler }

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool { return s.running.Load() }

// Addr returns the bound address once running, else the configured one.
func (s *Server) Addr() string {
	if a, ok := s.bound.Load().(string); ok {
		return a
	}
	return s.addr
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"mode":    s.mode,
		"clients": s.hub.Clients(),
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to bind dev server").
			WithContext("addr", s.addr).Fatal().Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	s.bound.Store(ln.Addr().String())
	s.running.Store(true)
	defer s.running.Store(false)
	slog.Info("Dev server started", logfields.URL("http://"+ln.Addr().String()), slog.String("mode", string(s.mode)))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapError(err, errors.CategoryRuntime, "dev server failed").Build()
		}
		return nil
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Dev server shutdown error", logfields.Error(err))
	}
	<-errCh
	slog.Info("Dev server stopped")
	return nil
}
