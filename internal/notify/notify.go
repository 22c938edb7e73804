// Package notify fans stage completion events out to live reload, metrics and
// optional external subscribers.
package notify

import (
	"context"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// StageEvent describes one finished stage run.
type StageEvent struct {
	Stage    string        `json:"stage"`
	BuildID  string        `json:"build_id"`
	Revision string        `json:"revision,omitempty"`
	Written  []string      `json:"written"`
	Hash     string        `json:"hash,omitempty"`
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}

// Failed reports whether the stage ended with a fatal error.
func (e StageEvent) Failed() bool { return e.Error != "" }

// Notifier receives stage events. Implementations must be safe for concurrent use;
// stages of a parallel build report concurrently.
type Notifier interface {
	StageCompleted(ctx context.Context, ev StageEvent)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev StageEvent)

func (f Func) StageCompleted(ctx context.Context, ev StageEvent) { f(ctx, ev) }

// Nop discards events.
type Nop struct{}

func (Nop) StageCompleted(context.Context, StageEvent) {}

// Multi delivers each event to every notifier in order.
type Multi []Notifier

func (m Multi) StageCompleted(ctx context.Context, ev StageEvent) {
	for _, n := range m {
		if n != nil {
			n.StageCompleted(ctx, ev)
		}
	}
}

// Broadcaster is the live reload side of the dev server.
type Broadcaster interface {
	Broadcast(hash string)
}

// LiveReload triggers a browser refresh after every successful stage that wrote files.
func LiveReload(b Broadcaster) Notifier {
	return Func(func(_ context.Context, ev StageEvent) {
		if ev.Failed() || len(ev.Written) == 0 || ev.Hash == "" {
			return
		}
		b.Broadcast(ev.Hash)
	})
}

// Metrics records stage durations, outcomes and written file counts.
func Metrics(r metrics.Recorder) Notifier {
	return Func(func(_ context.Context, ev StageEvent) {
		r.ObserveStageDuration(ev.Stage, ev.Duration)
		r.AddStageFiles(ev.Stage, len(ev.Written))
		switch {
		case ev.Failed():
			r.IncStageResult(ev.Stage, metrics.ResultFatal)
		case ev.Warnings > 0:
			r.IncStageResult(ev.Stage, metrics.ResultWarning)
		default:
			r.IncStageResult(ev.Stage, metrics.ResultSuccess)
		}
	})
}
