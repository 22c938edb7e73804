// Package orchestrator composes stages and cleaners into named tasks and runs
// them as builds.
package orchestrator

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/clean"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// Kind tells how a task runs its children.
type Kind string

const (
	KindStage    Kind = "stage"
	KindClean    Kind = "clean"
	KindSeries   Kind = "series"
	KindParallel Kind = "parallel"
)

// Task is a named unit of work. Composite tasks expose their children so the
// build graph can be rendered.
type Task interface {
	Name() string
	Kind() Kind
	Children() []Task
	Run(ctx context.Context) error
}

type leaf struct {
	name string
	kind Kind
	fn   func(ctx context.Context) error
}

func (l *leaf) Name() string                  { return l.name }
func (l *leaf) Kind() Kind                    { return l.kind }
func (l *leaf) Children() []Task              { return nil }
func (l *leaf) Run(ctx context.Context) error { return l.fn(ctx) }

// Func wraps fn as a stage-kind task.
func Func(name string, fn func(ctx context.Context) error) Task {
	return &leaf{name: name, kind: KindStage, fn: fn}
}

// StageTask runs a pipeline stage.
func StageTask(s *pipeline.Stage) Task {
	return &leaf{name: s.Name, kind: KindStage, fn: func(ctx context.Context) error {
		_, err := s.Run(ctx)
		return err
	}}
}

// CleanTask runs a cleaner.
func CleanTask(c *clean.Cleaner) Task {
	return &leaf{name: c.Name, kind: KindClean, fn: func(ctx context.Context) error {
		_, err := c.Run(ctx)
		return err
	}}
}

type composite struct {
	name  string
	kind  Kind
	tasks []Task
}

func (c *composite) Name() string     { return c.name }
func (c *composite) Kind() Kind       { return c.kind }
func (c *composite) Children() []Task { return c.tasks }

func (c *composite) Run(ctx context.Context) error {
	if c.kind == KindSeries {
		return runSeries(ctx, c.tasks)
	}
	return runParallel(ctx, c.tasks)
}

// Series runs tasks one after another and stops at the first failure.
func Series(name string, tasks ...Task) Task {
	return &composite{name: name, kind: KindSeries, tasks: tasks}
}

// Parallel starts every task at once, waits for all of them and reports every
// failure joined into one error.
func Parallel(name string, tasks ...Task) Task {
	return &composite{name: name, kind: KindParallel, tasks: tasks}
}

func runSeries(ctx context.Context, tasks []Task) error {
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runParallel(ctx context.Context, tasks []Task) error {
	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			errs[i] = t.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return stderrors.Join(errs...)
}

// Walk visits t and its descendants depth first.
func Walk(t Task, fn func(t Task, depth int)) {
	var visit func(Task, int)
	visit = func(t Task, depth int) {
		fn(t, depth)
		for _, c := range t.Children() {
			visit(c, depth+1)
		}
	}
	visit(t, 0)
}
