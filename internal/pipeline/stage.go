package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetbuilder/internal/fileset"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
)

// RunInfo identifies the top-level run a stage belongs to.
type RunInfo struct {
	BuildID  string
	Revision string
}

type runInfoKey struct{}

// WithRunInfo attaches run identity to ctx.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFrom returns the run identity stored in ctx, if any.
func RunInfoFrom(ctx context.Context) RunInfo {
	info, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return info
}

// Stage reads the files matched by Sources once and runs every chain on its
// own copy of them concurrently. Each chain writes its final files under Dest;
// when two chains produce the same path the later write wins.
type Stage struct {
	Name     string
	Root     string
	Sources  []string
	Dest     string
	Chains   [][]Step
	Notifier notify.Notifier
}

// Result summarises a stage run. Written holds project-relative slash paths.
type Result struct {
	Stage    string
	Written  []string
	Warnings int
	Duration time.Duration
	Hash     string
}

type output struct {
	rel string
	sum uint64
}

// Run executes the stage and reports the outcome to the notifier.
func (s *Stage) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	rep := NewReporter(s.Name)
	info := RunInfoFrom(ctx)

	res, err := s.run(ctx, rep)
	if res == nil {
		res = &Result{Stage: s.Name}
	}
	res.Warnings = rep.Warnings()
	res.Duration = time.Since(start)

	attrs := []any{logfields.Stage(s.Name), logfields.BuildID(info.BuildID), logfields.Files(len(res.Written)), logfields.Elapsed(res.Duration)}
	if err != nil {
		err = classify(s.Name, err)
		slog.Error("Stage failed", append(attrs, logfields.Error(err))...)
	} else {
		slog.Info("Stage completed", append(attrs, slog.Int("warnings", res.Warnings))...)
	}

	if s.Notifier != nil {
		ev := notify.StageEvent{
			Stage:    s.Name,
			BuildID:  info.BuildID,
			Revision: info.Revision,
			Written:  res.Written,
			Hash:     res.Hash,
			Warnings: res.Warnings,
			Duration: res.Duration,
			Time:     time.Now(),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		s.Notifier.StageCompleted(ctx, ev)
	}
	return res, err
}

func (s *Stage) run(ctx context.Context, rep *Reporter) (*Result, error) {
	files, err := Load(s.Root, s.Sources)
	if err != nil {
		return nil, err
	}
	slog.Debug("Stage sources resolved", logfields.Stage(s.Name), logfields.Files(len(files)))

	var (
		mu      sync.Mutex
		outputs []output
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, chain := range s.Chains {
		g.Go(func() error {
			current := make([]*File, len(files))
			for i, f := range files {
				current[i] = f.Clone()
			}
			for _, step := range chain {
				next, err := step.Apply(gctx, current, rep)
				if err != nil {
					return fmt.Errorf("step %s: %w", step.Name(), err)
				}
				current = next
			}
			written, err := s.write(current)
			if err != nil {
				return err
			}
			mu.Lock()
			outputs = append(outputs, written...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(s.Name, outputs), nil
}

// Load resolves patterns under root and reads every matched file.
func Load(root string, patterns []string) ([]*File, error) {
	matches, err := fileset.Resolve(root, patterns)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve sources").
			WithContext("patterns", patterns).Fatal().Build()
	}
	files := make([]*File, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source").
				WithContext("path", m.Path).Fatal().Build()
		}
		files = append(files, &File{Path: m.Path, Base: m.Base, Rel: m.Rel, Contents: data})
	}
	return files, nil
}

func (s *Stage) write(files []*File) ([]output, error) {
	dest := filepath.Join(s.Root, filepath.FromSlash(s.Dest))
	out := make([]output, 0, len(files))
	for _, f := range files {
		base, rel := dest, f.Rel
		if f.Target != "" {
			base, rel = s.Root, f.Target
		}
		target := filepath.Join(base, filepath.FromSlash(rel))
		if !within(base, target) {
			return nil, errors.InternalError("output escapes stage destination").
				WithContext("rel", rel).WithContext("dest", base).Build()
		}
		if err := WriteFile(target, f.Contents); err != nil {
			return nil, err
		}
		projectRel, err := filepath.Rel(s.Root, target)
		if err != nil {
			projectRel = target
		}
		out = append(out, output{rel: filepath.ToSlash(projectRel), sum: xxhash.Sum64(f.Contents)})
	}
	return out, nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WriteFile writes data to path through a temporary file and rename, creating
// parent directories. Readers never observe a partially written file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", dir).Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output file").
			WithContext("path", path).Build()
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext("path", path).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext("path", path).Build()
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to set output permissions").
			WithContext("path", path).Build()
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to move output into place").
			WithContext("path", path).Build()
	}
	return nil
}

func summarize(stage string, outputs []output) *Result {
	sort.Slice(outputs, func(i, j int) bool {
		if outputs[i].rel != outputs[j].rel {
			return outputs[i].rel < outputs[j].rel
		}
		return outputs[i].sum < outputs[j].sum
	})
	res := &Result{Stage: stage}
	if len(outputs) == 0 {
		return res
	}
	h := xxhash.New()
	for i, o := range outputs {
		if i == 0 || outputs[i-1].rel != o.rel {
			res.Written = append(res.Written, o.rel)
		}
		_, _ = fmt.Fprintf(h, "%s:%016x\n", o.rel, o.sum)
	}
	res.Hash = fmt.Sprintf("%016x", h.Sum64())
	return res
}

func classify(stage string, err error) error {
	if c, ok := errors.AsClassified(err); ok {
		return c.WithContext("stage", stage)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.WrapError(err, errors.CategoryBuild, "stage failed").WithContext("stage", stage).Build()
}
