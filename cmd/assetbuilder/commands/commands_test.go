package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
)

func parse(t *testing.T, cli *CLI, args ...string) *kong.Context {
	t.Helper()
	parser, err := kong.New(cli, kong.Name("assetbuilder"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return kctx
}

func TestDefaultCommandSelected(t *testing.T) {
	kctx := parse(t, &CLI{})
	require.Equal(t, "default", kctx.Command())
}

func TestTaskCommandsMatchRegistry(t *testing.T) {
	for _, name := range []string{
		"build", "html", "style", "js", "img", "svg", "spritesvg", "spriteimg",
		"otf", "ttf", "fonts", "clean", "cleanimg", "cleanfonts",
	} {
		kctx := parse(t, &CLI{}, name)
		require.Equal(t, name, kctx.Selected().Name)
	}
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{}
	var out bytes.Buffer
	cli.Graph.out = &out
	kctx := parse(t, cli, "-c", filepath.Join(dir, "assetbuilder.yaml"), "graph", "--format", "mermaid")
	require.NoError(t, kctx.Run(&Global{}, cli))
	require.Contains(t, out.String(), "graph TD")
	require.Contains(t, out.String(), "clean")
}

func TestGraphList(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{}
	var out bytes.Buffer
	cli.Graph.out = &out
	kctx := parse(t, cli, "-c", filepath.Join(dir, "assetbuilder.yaml"), "graph", "--list")
	require.NoError(t, kctx.Run(&Global{}, cli))
	require.Contains(t, out.String(), "mermaid")
	require.Contains(t, out.String(), "cleanfonts")
}

func TestGraphUnknownTask(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{}
	cli.Graph.out = &bytes.Buffer{}
	kctx := parse(t, cli, "-c", filepath.Join(dir, "assetbuilder.yaml"), "graph", "nope")
	require.Error(t, kctx.Run(&Global{}, cli))
}

func TestGraphRejectsUnknownFormat(t *testing.T) {
	parser, err := kong.New(&CLI{}, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"graph", "--format", "png"})
	require.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assetbuilder.yaml")

	cli := &CLI{}
	kctx := parse(t, cli, "-c", path, "init")
	require.NoError(t, kctx.Run(&Global{}, cli))
	require.FileExists(t, path)

	cli = &CLI{}
	kctx = parse(t, cli, "-c", path, "init")
	require.Error(t, kctx.Run(&Global{}, cli))

	cli = &CLI{}
	kctx = parse(t, cli, "-c", path, "init", "--force")
	require.NoError(t, kctx.Run(&Global{}, cli))
}

func TestCleanTaskUsesConfigDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	write("build/assets/js/main.min.js")
	write("build/assets/img/a.png")
	write("build/assets/fonts/a.woff")

	cli := &CLI{}
	kctx := parse(t, cli, "-c", filepath.Join(dir, "assetbuilder.yaml"), "clean")
	require.NoError(t, kctx.Run(&Global{}, cli))

	require.NoFileExists(t, filepath.Join(dir, "build/assets/js/main.min.js"))
	require.FileExists(t, filepath.Join(dir, "build/assets/img/a.png"))
	require.FileExists(t, filepath.Join(dir, "build/assets/fonts/a.woff"))
}

func TestLoadConfigProductionFlag(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{}
	parse(t, cli, "-c", filepath.Join(dir, "assetbuilder.yaml"), "--prod", "build")
	cfg, err := cli.LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.Production)
	require.Equal(t, dir, cfg.Root)
}

func TestServerConfigLeavesLoadedConfigUntouched(t *testing.T) {
	base := config.Default()
	derived := serverConfig(base, config.ServerModeProxy, 9001, "localhost:8080")

	require.Equal(t, config.ServerModeProxy, derived.Server.Mode)
	require.Equal(t, 9001, derived.Server.Port)
	require.Equal(t, "localhost:8080", derived.Server.Proxy)

	require.Equal(t, config.ServerModeStatic, base.Server.Mode)
	require.NotEqual(t, 9001, base.Server.Port)
	require.Empty(t, base.Server.Proxy)

	same := serverConfig(base, config.ServerModeStatic, 0, "")
	require.Equal(t, base.Server.Port, same.Server.Port)
}
