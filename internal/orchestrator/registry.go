package orchestrator

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetbuilder/internal/clean"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/fonts"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/images"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/markup"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
	"git.home.luguber.info/inful/assetbuilder/internal/revision"
	"git.home.luguber.info/inful/assetbuilder/internal/scripts"
	"git.home.luguber.info/inful/assetbuilder/internal/sprites"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
	"git.home.luguber.info/inful/assetbuilder/internal/vectors"
)

// Composite task names.
const (
	BuildTaskName = "build"
	FontsTaskName = "fonts"
)

// CategoryTasks maps every path table category to the task that builds it.
var CategoryTasks = map[config.CategoryName]string{
	config.CategoryMarkup:       markup.StageName,
	config.CategoryStyles:       styles.StageName,
	config.CategoryScripts:      scripts.StageName,
	config.CategoryImages:       images.StageName,
	config.CategorySprites:      sprites.StageName,
	config.CategoryVectors:      vectors.StageName,
	config.CategoryVectorSprite: vectors.SpriteStageName,
	config.CategoryFonts:        fonts.StageName,
	config.CategoryOutlines:     fonts.OutlineStageName,
}

// Options carries collaborators shared by the stages. Zero values select the
// defaults derived from the configuration.
type Options struct {
	Notifier notify.Notifier
	Recorder metrics.Recorder
	Compiler styles.Compiler
	Images   images.Options
	Outlines fonts.OutlineConverter
	// Revision resolves the source revision of a run. Defaults to HEAD of the
	// repository enclosing the project root.
	Revision func(root string) string
}

// Registry holds every named task of a project.
type Registry struct {
	cfg      *config.Config
	tasks    map[string]Task
	recorder metrics.Recorder
	revision func(root string) string
}

// NewRegistry wires stages, cleaners and composites for cfg.
func NewRegistry(cfg *config.Config, opts Options) (*Registry, error) {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Compiler == nil {
		opts.Compiler = styles.NewCompiler(cfg)
	}
	if opts.Images.Recorder == nil {
		opts.Images.Recorder = opts.Recorder
	}
	if opts.Revision == nil {
		opts.Revision = func(root string) string { return revision.Head(root).Commit }
	}

	n := opts.Notifier
	r := &Registry{cfg: cfg, tasks: make(map[string]Task), recorder: opts.Recorder, revision: opts.Revision}
	for _, s := range []*pipeline.Stage{
		markup.NewStage(cfg, n),
		styles.NewStage(cfg, n, opts.Compiler),
		scripts.NewStage(cfg, n),
		images.NewStage(cfg, n, opts.Images),
		vectors.NewStage(cfg, n),
		vectors.NewSpriteStage(cfg, n),
		sprites.NewStage(cfg, n),
		fonts.NewOutlineStage(cfg, n, opts.Outlines),
		fonts.NewStage(cfg, n),
	} {
		r.add(StageTask(s))
	}

	for _, mk := range []func(*config.Config) (*clean.Cleaner, error){clean.ForBuild, clean.ForImages, clean.ForFonts} {
		c, err := mk(cfg)
		if err != nil {
			return nil, err
		}
		r.add(CleanTask(c))
	}

	r.add(Series(BuildTaskName,
		r.tasks[clean.TaskName],
		Parallel("assets",
			r.tasks[markup.StageName],
			r.tasks[styles.StageName],
			r.tasks[scripts.StageName],
			r.tasks[images.StageName],
			r.tasks[vectors.StageName],
		),
	))
	r.add(Series(FontsTaskName, r.tasks[fonts.OutlineStageName], r.tasks[fonts.StageName]))
	return r, nil
}

func (r *Registry) add(t Task) {
	r.tasks[t.Name()] = t
}

// Names lists the registered task names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Task looks up a task by name.
func (r *Registry) Task(name string) (Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return nil, errors.NotFoundError("unknown task").
			WithContext("task", name).
			WithContext("available", strings.Join(r.Names(), ", ")).
			Build()
	}
	return t, nil
}

// ForCategory returns the task building category c.
func (r *Registry) ForCategory(c config.CategoryName) (Task, error) {
	name, ok := CategoryTasks[c]
	if !ok {
		return nil, errors.NotFoundError("no task for category").WithContext("category", string(c)).Build()
	}
	return r.Task(name)
}

// Run executes the named task as a top-level run.
func (r *Registry) Run(ctx context.Context, name string) error {
	t, err := r.Task(name)
	if err != nil {
		return err
	}
	return r.Execute(ctx, t)
}

// Execute runs t under a fresh build ID and the current source revision,
// recording its duration and outcome.
func (r *Registry) Execute(ctx context.Context, t Task) error {
	info := pipeline.RunInfo{BuildID: uuid.NewString(), Revision: r.revision(r.cfg.Root)}
	ctx = pipeline.WithRunInfo(ctx, info)
	attrs := []any{logfields.Task(t.Name()), logfields.BuildID(info.BuildID)}
	if info.Revision != "" {
		attrs = append(attrs, logfields.Revision(info.Revision))
	}
	slog.Debug("Task started", attrs...)

	start := time.Now()
	err := t.Run(ctx)
	elapsed := time.Since(start)
	r.recorder.ObserveBuildDuration(t.Name(), elapsed)
	attrs = append(attrs, logfields.Elapsed(elapsed))

	switch {
	case err == nil:
		r.recorder.IncBuildOutcome(t.Name(), metrics.BuildOutcomeSuccess)
		slog.Info("Task completed", attrs...)
	case stderrors.Is(err, context.Canceled):
		r.recorder.IncBuildOutcome(t.Name(), metrics.BuildOutcomeCanceled)
		slog.Warn("Task canceled", attrs...)
	default:
		r.recorder.IncBuildOutcome(t.Name(), metrics.BuildOutcomeFailed)
		slog.Error("Task failed", append(attrs, logfields.Error(err))...)
	}
	return err
}
