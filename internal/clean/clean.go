// Package clean removes generated output selected by include and !exclude
// patterns.
package clean

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/fileset"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Task names.
const (
	TaskName       = "clean"
	ImagesTaskName = "cleanimg"
	FontsTaskName  = "cleanfonts"
)

// Cleaner deletes the paths matched by its patterns under Root.
type Cleaner struct {
	Name     string
	Root     string
	patterns []string
	include  []*fileset.Pattern
	exclude  *fileset.Set
}

// Result lists what a run removed, as slash paths relative to Root.
type Result struct {
	Task     string
	Removed  []string
	Duration time.Duration
}

// New compiles patterns into a cleaner.
func New(name, root string, patterns []string) (*Cleaner, error) {
	c := &Cleaner{Name: name, Root: root, patterns: patterns}
	var negated []string
	for _, raw := range patterns {
		p, err := fileset.Compile(raw)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid clean pattern").
				WithContext("pattern", raw).Build()
		}
		if p.Negate {
			negated = append(negated, raw)
			continue
		}
		c.include = append(c.include, p)
	}
	exclude, err := fileset.NewSet(negated)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid clean pattern").Build()
	}
	c.exclude = exclude
	return c, nil
}

// ForBuild removes generated assets except the preserved subtrees.
func ForBuild(cfg *config.Config) (*Cleaner, error) {
	return New(TaskName, cfg.Root, cfg.Clean.Patterns)
}

// ForImages removes the image output and the compression signature cache.
func ForImages(cfg *config.Config) (*Cleaner, error) {
	return New(ImagesTaskName, cfg.Root, []string{
		dir(cfg.Category(config.CategoryImages).Dest),
		cfg.Images.SignatureCache,
	})
}

// ForFonts removes the font output.
func ForFonts(cfg *config.Config) (*Cleaner, error) {
	return New(FontsTaskName, cfg.Root, []string{dir(cfg.Category(config.CategoryFonts).Dest)})
}

func dir(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// Patterns returns the configured patterns.
func (c *Cleaner) Patterns() []string {
	return append([]string(nil), c.patterns...)
}

// Run deletes every matched path. A matched directory is removed with its
// contents unless an excluded path lies below it, in which case only its
// matched descendants go. Missing targets are not an error.
func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{Task: c.Name}
	removed := make(map[string]bool)

	for _, p := range c.include {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var err error
		if p.Literal() {
			err = c.removeLiteral(ctx, p.Expr(), removed)
		} else {
			err = c.removeMatching(ctx, p, removed)
		}
		if err != nil {
			slog.Error("Clean failed", logfields.Task(c.Name), logfields.Error(err))
			return res, err
		}
	}

	for rel := range removed {
		res.Removed = append(res.Removed, rel)
	}
	sort.Strings(res.Removed)
	res.Duration = time.Since(start)
	slog.Info("Clean completed",
		logfields.Task(c.Name),
		logfields.Files(len(res.Removed)),
		logfields.Elapsed(res.Duration))
	return res, nil
}

func (c *Cleaner) removeLiteral(ctx context.Context, rel string, removed map[string]bool) error {
	if c.exclude.Excluded(rel) {
		return nil
	}
	osPath := filepath.Join(c.Root, filepath.FromSlash(rel))
	info, err := os.Lstat(osPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return c.fsError(err, rel)
	}
	if info.IsDir() {
		protected, err := c.protects(osPath)
		if err != nil {
			return c.fsError(err, rel)
		}
		if protected {
			return c.removeMatching(ctx, fileset.MustCompile(rel+"/**"), removed)
		}
	}
	return c.remove(osPath, rel, removed)
}

func (c *Cleaner) removeMatching(ctx context.Context, p *fileset.Pattern, removed map[string]bool) error {
	base := filepath.Join(c.Root, filepath.FromSlash(p.Base))
	if _, err := os.Lstat(base); os.IsNotExist(err) {
		return nil
	}
	var targets []string
	err := filepath.WalkDir(base, func(osPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := c.rel(osPath)
		if err != nil {
			return err
		}
		if !p.Match(rel) || c.exclude.Excluded(rel) {
			return nil
		}
		if d.IsDir() {
			protected, err := c.protects(osPath)
			if err != nil {
				return err
			}
			if protected {
				return nil
			}
			targets = append(targets, rel)
			return filepath.SkipDir
		}
		targets = append(targets, rel)
		return nil
	})
	if err != nil {
		return c.fsError(err, p.Raw)
	}
	for _, rel := range targets {
		if err := c.remove(filepath.Join(c.Root, filepath.FromSlash(rel)), rel, removed); err != nil {
			return err
		}
	}
	return nil
}

// protects reports whether an excluded path lies below dir.
func (c *Cleaner) protects(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(osPath string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if osPath == dir {
			return nil
		}
		rel, err := c.rel(osPath)
		if err != nil {
			return err
		}
		if c.exclude.Excluded(rel) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found, err
}

func (c *Cleaner) remove(osPath, rel string, removed map[string]bool) error {
	if err := os.RemoveAll(osPath); err != nil {
		return c.fsError(err, rel)
	}
	removed[rel] = true
	slog.Debug("Removed", logfields.Task(c.Name), logfields.Path(rel))
	return nil
}

func (c *Cleaner) rel(osPath string) (string, error) {
	rel, err := filepath.Rel(c.Root, osPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (c *Cleaner) fsError(err error, target string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean").
		WithContext("task", c.Name).
		WithContext("target", target).
		Fatal().
		Build()
}
