// Package watch re-runs the stage bound to a category whenever a file matching
// its watch globs changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

// Options tunes a Watcher.
type Options struct {
	// Quiet coalesces bursts of events per binding. Zero runs immediately.
	Quiet time.Duration
	// FullRebuild, when positive, runs Rebuild on this interval.
	FullRebuild time.Duration
	Rebuild     orchestrator.Task
}

// Watcher dispatches filesystem events to bindings.
type Watcher struct {
	root     string
	bindings []*Binding
	exec     Executor
	opts     Options
	wg       sync.WaitGroup
}

// New returns a watcher over the project at root.
func New(root string, bindings []*Binding, exec Executor, opts Options) *Watcher {
	return &Watcher{root: root, bindings: bindings, exec: exec, opts: opts}
}

// Dispatch triggers every binding matching path and returns the names of the
// triggered tasks. Ignored and out-of-project paths trigger nothing.
func (w *Watcher) Dispatch(ctx context.Context, path string) []string {
	if shouldIgnoreEvent(path) {
		return nil
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	rel = filepath.ToSlash(rel)
	var hit []string
	for _, b := range w.bindings {
		if b.Matches(rel) {
			hit = append(hit, b.Task.Name())
			b.trigger(ctx, w.opts.Quiet, w.exec, &w.wg)
		}
	}
	return hit
}

// Wait blocks until every in-flight run has returned. Changes dispatched
// after Wait are ignored.
func (w *Watcher) Wait() {
	for _, b := range w.bindings {
		b.stop()
	}
	w.wg.Wait()
}

// Run watches until ctx is canceled. In-flight runs are awaited before it
// returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.dirs() {
		addDirsRecursive(fsw, dir)
	}

	if w.opts.FullRebuild > 0 && w.opts.Rebuild != nil {
		s, err := w.schedule(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Shutdown() }()
	}

	slog.Info("Watching for changes", logfields.Path(w.root), slog.Int("bindings", len(w.bindings)))
	defer w.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(fsw, ev.Name)
			return
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.Dispatch(ctx, ev.Name)
}

// dirs returns the existing static bases of all bindings.
func (w *Watcher) dirs() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range w.bindings {
		for _, base := range b.set.Bases() {
			dir := filepath.Join(w.root, filepath.FromSlash(base))
			if seen[dir] {
				continue
			}
			seen[dir] = true
			if _, err := os.Stat(dir); err != nil {
				slog.Debug("Watch base missing", logfields.Path(dir))
				continue
			}
			out = append(out, dir)
		}
	}
	return out
}

func (w *Watcher) schedule(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.FullRebuild),
		gocron.NewTask(func() {
			slog.Info("Running scheduled full rebuild", logfields.Task(w.opts.Rebuild.Name()))
			if err := w.exec(ctx, w.opts.Rebuild); err != nil {
				slog.Warn("Scheduled rebuild failed", logfields.Error(err))
			}
		}),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid full rebuild schedule").Build()
	}
	s.Start()
	return s, nil
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		base == "Thumbs.db",
		base == "4913":
		return true
	}
	return false
}
