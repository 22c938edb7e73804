package revision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func TestHeadOutsideRepository(t *testing.T) {
	require.Equal(t, Info{}, Head(t.TempDir()))
}

func TestHeadWithoutCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := ggit.PlainInit(dir, false)
	require.NoError(t, err)
	require.Equal(t, Info{}, Head(dir))
}

func TestHeadFindsEnclosingRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := ggit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	hash, err := wt.Commit("init", &ggit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	nested := filepath.Join(dir, "site", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	info := Head(nested)
	require.Equal(t, hash.String(), info.Commit)
	require.Equal(t, "master", info.Branch)
	require.Equal(t, hash.String()[:8], info.Short())
}
