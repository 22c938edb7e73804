package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/fileset"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

// Executor runs a task as a top-level build.
type Executor func(ctx context.Context, t orchestrator.Task) error

// Binding ties the watch globs of one category to the task rebuilding it.
// A binding runs at most one task at a time; changes seen during a run queue
// exactly one follow-up run.
type Binding struct {
	Category config.CategoryName
	Patterns []string
	Task     orchestrator.Task

	set *fileset.Set

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
	stopped bool
}

// NewBinding compiles patterns for task.
func NewBinding(category config.CategoryName, patterns []string, task orchestrator.Task) (*Binding, error) {
	set, err := fileset.NewSet(patterns)
	if err != nil {
		return nil, err
	}
	return &Binding{Category: category, Patterns: patterns, Task: task, set: set}, nil
}

// Bindings builds the registry of every category that declares watch globs,
// in path table order.
func Bindings(cfg *config.Config, reg *orchestrator.Registry) ([]*Binding, error) {
	var out []*Binding
	for _, name := range config.AllCategories() {
		cat := cfg.Category(name)
		if len(cat.Watch) == 0 {
			continue
		}
		task, err := reg.ForCategory(name)
		if err != nil {
			return nil, err
		}
		b, err := NewBinding(name, cat.Watch, task)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Matches reports whether a project-relative slash path is covered.
func (b *Binding) Matches(rel string) bool {
	return b.set.Match(rel)
}

// trigger schedules a run after the quiet window.
func (b *Binding) trigger(ctx context.Context, quiet time.Duration, exec Executor, wg *sync.WaitGroup) {
	if quiet <= 0 {
		b.fire(ctx, exec, wg)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(quiet, func() { b.fire(ctx, exec, wg) })
}

func (b *Binding) fire(ctx context.Context, exec Executor, wg *sync.WaitGroup) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	if b.running {
		b.pending = true
		b.mu.Unlock()
		return
	}
	b.running = true
	// Add happens under mu so it is ordered before stop returns.
	wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer wg.Done()
		for {
			if ctx.Err() != nil {
				b.finish()
				return
			}
			slog.Info("Change detected; rebuilding", logfields.Task(b.Task.Name()), logfields.Category(string(b.Category)))
			if err := exec(ctx, b.Task); err != nil {
				slog.Warn("Rebuild failed", logfields.Task(b.Task.Name()), logfields.Error(err))
			}
			b.mu.Lock()
			if !b.pending {
				b.running = false
				b.mu.Unlock()
				return
			}
			b.pending = false
			b.mu.Unlock()
		}
	}()
}

func (b *Binding) finish() {
	b.mu.Lock()
	b.running = false
	b.pending = false
	b.mu.Unlock()
}

// stop cancels the pending timer and rejects later triggers. A timer callback
// already in flight sees stopped and returns without adding to the group.
func (b *Binding) stop() {
	b.mu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
}
