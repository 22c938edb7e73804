package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Step transforms the files produced by the previous step. A returned error is
// fatal to the stage; per-file problems go through Reporter.Warn and the file
// is left out of the result.
type Step interface {
	Name() string
	Apply(ctx context.Context, files []*File, rep *Reporter) ([]*File, error)
}

// Reporter counts and logs per-file warnings for one stage run.
type Reporter struct {
	stage    string
	warnings atomic.Int64
}

// NewReporter creates a reporter for stage.
func NewReporter(stage string) *Reporter {
	return &Reporter{stage: stage}
}

// Warn records a per-file transformation failure.
func (r *Reporter) Warn(step string, f *File, err error) {
	r.warnings.Add(1)
	slog.Warn("Transform failed, file skipped",
		logfields.Stage(r.stage),
		slog.String("step", step),
		logfields.File(f.Name()),
		logfields.Error(err))
}

// Warnings returns the number of warnings recorded so far.
func (r *Reporter) Warnings() int {
	return int(r.warnings.Load())
}

// FileFunc transforms one file. Returning (nil, nil) drops the file silently.
type FileFunc func(ctx context.Context, f *File) (*File, error)

// MultiFileFunc transforms one file into any number of files.
type MultiFileFunc func(ctx context.Context, f *File) ([]*File, error)

type perFile struct {
	name string
	fn   MultiFileFunc
}

// PerFile builds a step applying fn to each file independently. Errors
// classified as filesystem, runtime or internal abort the stage; any other
// error drops only the offending file.
func PerFile(name string, fn FileFunc) Step {
	return &perFile{name: name, fn: func(ctx context.Context, f *File) ([]*File, error) {
		out, err := fn(ctx, f)
		if err != nil || out == nil {
			return nil, err
		}
		return []*File{out}, nil
	}}
}

// PerFileMulti is PerFile for transformations producing several outputs.
func PerFileMulti(name string, fn MultiFileFunc) Step {
	return &perFile{name: name, fn: fn}
}

func (p *perFile) Name() string { return p.name }

func (p *perFile) Apply(ctx context.Context, files []*File, rep *Reporter) ([]*File, error) {
	out := make([]*File, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.fn(ctx, f)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			rep.Warn(p.name, f, err)
			continue
		}
		out = append(out, res...)
	}
	return out, nil
}

// StepFunc adapts a whole-set transformation (concatenation, packing) to Step.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, files []*File, rep *Reporter) ([]*File, error)
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Apply(ctx context.Context, files []*File, rep *Reporter) ([]*File, error) {
	return s.Fn(ctx, files, rep)
}

// IsFatal reports whether err must abort a stage rather than skip a file.
func IsFatal(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	c, ok := errors.AsClassified(err)
	if !ok {
		return false
	}
	switch c.Category() {
	case errors.CategoryFileSystem, errors.CategoryRuntime, errors.CategoryInternal:
		return true
	}
	return false
}
