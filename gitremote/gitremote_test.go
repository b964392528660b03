package gitremote

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeRecap(t *testing.T) {
	porcelain := "A  home/u/.bashrc\nM  home/u/.vimrc\n"
	recap := changeRecap(porcelain)

	assert.True(t, strings.HasPrefix(recap, "Tracked files updated:\n"))
	assert.Contains(t, recap, "- A: home/u/.bashrc")
	assert.Contains(t, recap, "- M: home/u/.vimrc")
}

func TestPathMapping(t *testing.T) {
	assert.Equal(t, "home/u/.bashrc", stagedPath("/home/u/.bashrc"))
	assert.Equal(t, "/home/u/.bashrc", logicalPath("home/u/.bashrc"))

	// Round trip
	logical := "/home/u/.config/nvim/init.lua"
	assert.Equal(t, logical, logicalPath(stagedPath(logical)))
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "shelf-test")
	t.Setenv("GIT_AUTHOR_EMAIL", "shelf@test.local")
	t.Setenv("GIT_COMMITTER_NAME", "shelf-test")
	t.Setenv("GIT_COMMITTER_EMAIL", "shelf@test.local")
}

func initBareRemote(t *testing.T, dir string) string {
	t.Helper()
	bare := filepath.Join(dir, "remote.git")
	cmd := exec.Command("git", "init", "--bare", "-b", "main", bare)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return bare
}

func TestPushFetchRoundTrip(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	ref := initBareRemote(t, dir)

	pusher, err := New(filepath.Join(dir, "mirror-a"))
	require.NoError(t, err)

	files := map[string][]byte{
		"/home/u/.bashrc":                 []byte("export EDITOR=vim\n"),
		"/home/u/.config/nvim/init.lua":   []byte("vim.o.number = true\n"),
		"/home/u/.config/kitty/kitty.cfg": []byte("font_size 12\n"),
	}
	require.NoError(t, pusher.Push(ctx, ref, files))

	// A second mirror sees exactly what was pushed
	fetcher, err := New(filepath.Join(dir, "mirror-b"))
	require.NoError(t, err)
	got, err := fetcher.Fetch(ctx, ref)
	require.NoError(t, err)

	require.Len(t, got, len(files))
	for path, content := range files {
		assert.Equal(t, content, got[path], path)
	}
}

func TestPush_NoChangesIsNoOp(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	ref := initBareRemote(t, dir)

	remote, err := New(filepath.Join(dir, "mirror"))
	require.NoError(t, err)

	files := map[string][]byte{"/home/u/.bashrc": []byte("X")}
	require.NoError(t, remote.Push(ctx, ref, files))

	count, err := remote.gitOut(ctx, "rev-list", "--count", "HEAD")
	require.NoError(t, err)

	// Identical content: no new commit, no error
	require.NoError(t, remote.Push(ctx, ref, files))
	count2, err := remote.gitOut(ctx, "rev-list", "--count", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, count, count2)
}

func TestPush_CustomCommitMessage(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	ref := initBareRemote(t, dir)

	remote, err := New(filepath.Join(dir, "mirror"))
	require.NoError(t, err)
	remote.CommitMessage = "chore: sync dotfiles"

	require.NoError(t, remote.Push(ctx, ref, map[string][]byte{"/home/u/.vimrc": []byte("set nu")}))

	subject, err := remote.gitOut(ctx, "log", "-1", "--pretty=%s")
	require.NoError(t, err)
	assert.Equal(t, "chore: sync dotfiles", strings.TrimSpace(subject))
}

func TestFetch_UnreachableRemoteIsTransportError(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()

	remote, err := New(filepath.Join(dir, "mirror"))
	require.NoError(t, err)

	_, err = remote.Fetch(ctx, filepath.Join(dir, "no-such-remote.git"))
	require.Error(t, err)
}
