package toolexec

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// fakeTool writes an executable shell script and returns its path.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	p := filepath.Join(t.TempDir(), "tool")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0o755))
	return p
}

func TestRunReturnsStdout(t *testing.T) {
	bin := fakeTool(t, "cat\n")
	out, err := New(bin).Run(context.Background(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}

func TestRunPassesArgs(t *testing.T) {
	bin := fakeTool(t, `echo "$1-$2"`+"\n")
	out, err := New(bin).Run(context.Background(), nil, "a", "b")
	require.NoError(t, err)
	require.Equal(t, "a-b\n", string(out))
}

func TestRunFailureCarriesOutput(t *testing.T) {
	bin := fakeTool(t, "echo 'syntax error' >&2\nexit 3\n")
	_, err := New(bin).Run(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, errors.CategoryExternal, errors.GetCategory(err))
	require.Contains(t, err.Error(), "syntax error")
}

func TestRunMissingBinary(t *testing.T) {
	tool := New("assetbuilder-definitely-missing-tool")
	require.False(t, tool.Available())
	_, err := tool.Run(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, errors.CategoryExternal, errors.GetCategory(err))
	require.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestRunUsesDir(t *testing.T) {
	bin := fakeTool(t, "pwd\n")
	dir := t.TempDir()
	tool := New(bin)
	tool.Dir = dir
	out, err := tool.Run(context.Background(), nil)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.Contains(t, string(out), filepath.Base(resolved))
}
