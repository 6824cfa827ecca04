package gitinfo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eykd/scenariodoc/internal/gitinfo"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("docs\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestRevision(t *testing.T) {
	dir, want := initRepo(t)
	sub := filepath.Join(dir, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := gitinfo.Revision(sub)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBranch(t *testing.T) {
	dir, _ := initRepo(t)
	got, err := gitinfo.Branch(dir)
	require.NoError(t, err)
	assert.Equal(t, "master", got)
}

func TestRevision_NotARepository(t *testing.T) {
	_, err := gitinfo.Revision(t.TempDir())
	assert.Error(t, err)
}
