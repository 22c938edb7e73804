package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/orchestrator"
)

type counter struct {
	mu   sync.Mutex
	runs map[string]int
}

func (c *counter) exec(_ context.Context, t orchestrator.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[t.Name()]++
	return nil
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[name]
}

func nop(name string) orchestrator.Task {
	return orchestrator.Func(name, func(context.Context) error { return nil })
}

func binding(t *testing.T, cat config.CategoryName, task string, patterns ...string) *Binding {
	t.Helper()
	b, err := NewBinding(cat, patterns, nop(task))
	require.NoError(t, err)
	return b
}

func TestDispatchTriggersOnlyMatchingBindings(t *testing.T) {
	root := t.TempDir()
	c := &counter{runs: map[string]int{}}
	w := New(root, []*Binding{
		binding(t, config.CategoryMarkup, "html", "src/*.html", "src/tpl/**/*.*"),
		binding(t, config.CategoryScripts, "js", "src/js/**/*.*"),
		binding(t, config.CategoryImages, "img", "src/img/**/*.*"),
	}, c.exec, Options{})

	ctx := context.Background()
	require.Equal(t, []string{"js"}, w.Dispatch(ctx, filepath.Join(root, "src/js/myjs/app.js")))
	require.Equal(t, []string{"html"}, w.Dispatch(ctx, filepath.Join(root, "src/tpl/header.html")))
	require.Empty(t, w.Dispatch(ctx, filepath.Join(root, "src/js/.app.js.swp")))
	require.Empty(t, w.Dispatch(ctx, filepath.Join(root, "src/js/app.js~")))
	require.Empty(t, w.Dispatch(ctx, filepath.Join(root, "build/index.html")))
	require.Empty(t, w.Dispatch(ctx, filepath.Join(filepath.Dir(root), "elsewhere.js")))
	w.Wait()

	require.Equal(t, 1, c.get("js"))
	require.Equal(t, 1, c.get("html"))
	require.Zero(t, c.get("img"))
}

func TestDefaultBindingsFollowPathTable(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	reg, err := orchestrator.NewRegistry(cfg, orchestrator.Options{Revision: func(string) string { return "" }})
	require.NoError(t, err)
	bs, err := Bindings(cfg, reg)
	require.NoError(t, err)

	var names []string
	for _, b := range bs {
		names = append(names, b.Task.Name())
	}
	require.Equal(t, []string{"html", "style", "js", "img", "svg"}, names)

	w := New(cfg.Root, bs, (&counter{runs: map[string]int{}}).exec, Options{})
	defer w.Wait()
	require.Equal(t, []string{"style", "svg"}, w.Dispatch(context.Background(), filepath.Join(cfg.Root, "src/svg/arrow.svg")))
	require.Equal(t, []string{"html", "style"}, w.Dispatch(context.Background(), filepath.Join(cfg.Root, "src/index.html")))
}

func TestBindingRunsOneAtATimeWithOneFollowUp(t *testing.T) {
	root := t.TempDir()
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var runs atomic.Int32
	exec := func(_ context.Context, _ orchestrator.Task) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}
	w := New(root, []*Binding{binding(t, config.CategoryScripts, "js", "src/**")}, exec, Options{})
	ctx := context.Background()
	path := filepath.Join(root, "src/a.js")

	w.Dispatch(ctx, path)
	<-started
	for i := 0; i < 5; i++ {
		w.Dispatch(ctx, path)
	}
	release <- struct{}{}
	<-started
	release <- struct{}{}
	w.Wait()

	require.EqualValues(t, 2, runs.Load())
}

func TestQuietWindowCoalescesBursts(t *testing.T) {
	root := t.TempDir()
	c := &counter{runs: map[string]int{}}
	w := New(root, []*Binding{binding(t, config.CategoryStyles, "style", "src/**/*.*")}, c.exec, Options{Quiet: 30 * time.Millisecond})
	for i := 0; i < 10; i++ {
		w.Dispatch(context.Background(), filepath.Join(root, "src/style/a.scss"))
	}
	require.Eventually(t, func() bool { return c.get("style") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	w.Wait()
	require.Equal(t, 1, c.get("style"))
}

func TestWaitStopsPendingAndLaterTriggers(t *testing.T) {
	root := t.TempDir()
	c := &counter{runs: map[string]int{}}
	w := New(root, []*Binding{binding(t, config.CategoryStyles, "style", "src/**/*.*")}, c.exec, Options{Quiet: 20 * time.Millisecond})
	path := filepath.Join(root, "src/style/a.scss")

	w.Dispatch(context.Background(), path)
	w.Wait()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, 0, c.get("style"))

	require.Equal(t, []string{"style"}, w.Dispatch(context.Background(), path))
	time.Sleep(60 * time.Millisecond)
	w.Wait()
	require.Equal(t, 0, c.get("style"))
}

func TestConcurrentTriggersAndWait(t *testing.T) {
	root := t.TempDir()
	c := &counter{runs: map[string]int{}}
	w := New(root, []*Binding{binding(t, config.CategoryScripts, "js", "src/**")}, c.exec, Options{Quiet: time.Millisecond})
	path := filepath.Join(root, "src/a.js")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				w.Dispatch(context.Background(), path)
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	w.Wait()
	wg.Wait()
	after := c.get("js")
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, c.get("js"))
}

func TestRunReactsToFileChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src/js"), 0o755))
	c := &counter{runs: map[string]int{}}
	w := New(root, []*Binding{binding(t, config.CategoryScripts, "js", "src/js/**/*.*")}, c.exec, Options{Quiet: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "src/js/app.js"), []byte("x"), 0o644)
		return c.get("js") > 0
	}, 3*time.Second, 50*time.Millisecond)

	sub := filepath.Join(root, "src/js/vendor")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	before := c.get("js")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(sub, "lib.js"), []byte("y"), 0o644)
		return c.get("js") > before
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestFullRebuildRunsOnSchedule(t *testing.T) {
	root := t.TempDir()
	c := &counter{runs: map[string]int{}}
	w := New(root, nil, c.exec, Options{FullRebuild: 50 * time.Millisecond, Rebuild: nop("build")})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return c.get("build") >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, p := range []string{".DS_Store", "a.swp", "b~", "#c#", "Thumbs.db", "dir/.hidden"} {
		require.True(t, shouldIgnoreEvent(p), p)
	}
	for _, p := range []string{"a.js", "style.scss", "img/logo.png"} {
		require.False(t, shouldIgnoreEvent(p), p)
	}
}
