package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote counts calls and can fail a configurable number of fetches.
type fakeRemote struct {
	files      map[string][]byte
	fetchCalls int
	fetchFails int
	pushCalls  int
	pushed     map[string][]byte
	pushErr    error
}

func (r *fakeRemote) Fetch(_ context.Context, _ string) (map[string][]byte, error) {
	r.fetchCalls++
	if r.fetchCalls <= r.fetchFails {
		return nil, fmt.Errorf("remote fetch: %w", ErrTransport)
	}
	return r.files, nil
}

func (r *fakeRemote) Push(_ context.Context, _ string, files map[string][]byte) error {
	r.pushCalls++
	if r.pushErr != nil {
		return r.pushErr
	}
	r.pushed = files
	return nil
}

func findResult(t *testing.T, results []SyncResult, path string) SyncResult {
	t.Helper()
	for _, res := range results {
		if res.Path == path {
			return res
		}
	}
	t.Fatalf("no result for %s", path)
	return SyncResult{}
}

func TestPush_StagesCleanEntriesInOneCall(t *testing.T) {
	rec, work := setupReconciler(t)
	a := filepath.Join(work, ".bashrc")
	b := filepath.Join(work, ".vimrc")
	writeFile(t, a, "A")
	writeFile(t, b, "B")
	ea, err := rec.Track(a)
	require.NoError(t, err)
	eb, err := rec.Track(b)
	require.NoError(t, err)

	remote := &fakeRemote{}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Push(context.Background(), "origin")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, remote.pushCalls)
	assert.Equal(t, []byte("A"), remote.pushed[ea.Path])
	assert.Equal(t, []byte("B"), remote.pushed[eb.Path])
}

func TestPush_DirtySaveAndPush(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".zshrc")
	writeFile(t, path, "old")
	entry, err := rec.Track(path)
	require.NoError(t, err)
	writeFile(t, path, "new")

	remote := &fakeRemote{}
	coord := NewCoordinator(rec, remote, &fakePrompter{one: pushSave})

	results, err := coord.Push(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, ActionPushed, findResult(t, results, entry.Path).Action)

	// The baseline advanced before staging
	assert.Equal(t, []byte("new"), remote.pushed[entry.Path])
	got, err := rec.Get(path)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint([]byte("new")), got.Fingerprint)
}

func TestPush_DirtySkipLeavesBaseline(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".zshrc")
	writeFile(t, path, "old")
	entry, err := rec.Track(path)
	require.NoError(t, err)
	writeFile(t, path, "new")

	remote := &fakeRemote{}
	coord := NewCoordinator(rec, remote, &fakePrompter{one: pushSkip})

	results, err := coord.Push(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, findResult(t, results, entry.Path).Action)
	assert.Zero(t, remote.pushCalls)

	got, err := rec.Get(path)
	require.NoError(t, err)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
}

func TestPush_SkipsMissing(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".gone")
	writeFile(t, path, "X")
	entry, err := rec.Track(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	remote := &fakeRemote{}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Push(context.Background(), "origin")
	require.NoError(t, err)
	res := findResult(t, results, entry.Path)
	assert.Equal(t, ActionSkipped, res.Action)
	assert.Equal(t, StatusMissing, res.Status)
	assert.Zero(t, remote.pushCalls)
}

func TestPush_FailureIsNeverRetried(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "X")
	_, err := rec.Track(path)
	require.NoError(t, err)

	remote := &fakeRemote{pushErr: fmt.Errorf("remote push: %w", ErrTransport)}
	coord := NewCoordinator(rec, remote, nil)

	_, err = coord.Push(context.Background(), "origin")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, remote.pushCalls)
}

func TestPull_CleanEntryUpdated(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "local")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	remote := &fakeRemote{files: map[string][]byte{entry.Path: []byte("remote")}}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	res := findResult(t, results, entry.Path)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, StatusClean, res.Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	got, err := rec.Get(path)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint([]byte("remote")), got.Fingerprint)
}

func TestPull_UnchangedKeepsLocalEdits(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "base")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	// Remote matches the baseline, local file diverged after tracking
	writeFile(t, path, "edited")
	remote := &fakeRemote{files: map[string][]byte{entry.Path: []byte("base")}}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	res := findResult(t, results, entry.Path)
	assert.Equal(t, ActionUnchanged, res.Action)
	assert.Equal(t, StatusDirty, res.Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))
}

func TestPull_DirtyConflictAbortLeavesEverything(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "base")
	entry, err := rec.Track(path)
	require.NoError(t, err)
	writeFile(t, path, "edited")

	remote := &fakeRemote{files: map[string][]byte{entry.Path: []byte("remote")}}

	// Without a prompter the divergence is a hard conflict
	coord := NewCoordinator(rec, remote, nil)
	_, err = coord.Pull(context.Background(), "origin")
	assert.ErrorIs(t, err, ErrConflict)

	// With a prompter, abort also surfaces the conflict
	coord = NewCoordinator(rec, remote, &fakePrompter{one: resolveAbort})
	_, err = coord.Pull(context.Background(), "origin")
	assert.ErrorIs(t, err, ErrConflict)

	// Neither the file nor the baseline moved
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))
	got, err := rec.Get(path)
	require.NoError(t, err)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
}

func TestPull_DirtyConflictResolutions(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "base")
	entry, err := rec.Track(path)
	require.NoError(t, err)
	writeFile(t, path, "edited")

	remote := &fakeRemote{files: map[string][]byte{entry.Path: []byte("remote")}}

	coord := NewCoordinator(rec, remote, &fakePrompter{one: resolveKeepLocal})
	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, ActionKeptLocal, findResult(t, results, entry.Path).Action)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))

	coord = NewCoordinator(rec, remote, &fakePrompter{one: resolveTakeRemote})
	results, err = coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, findResult(t, results, entry.Path).Action)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}

func TestPull_RepeatedPullsLeaveFetchedMapIntact(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "local")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	// The fake hands out the same map on every fetch, as a caching
	// implementation would.
	remote := &fakeRemote{files: map[string][]byte{entry.Path: []byte("remote")}}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, findResult(t, results, entry.Path).Action)

	// The remote's map still holds the entry after the first pull
	assert.Contains(t, remote.files, entry.Path)

	// A second pull classifies against the same remote content, not an
	// emptied view of it
	results, err = coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	res := findResult(t, results, entry.Path)
	assert.Equal(t, ActionUnchanged, res.Action)
	assert.Equal(t, StatusClean, res.Status)
}

func TestPull_ReportsRemoteMissingAndRemoteNew(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "X")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	remote := &fakeRemote{files: map[string][]byte{"/elsewhere/.gitconfig": []byte("[user]")}}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	require.Len(t, results, 2)

	res := findResult(t, results, entry.Path)
	assert.Equal(t, ActionRemoteMissing, res.Action)
	assert.Equal(t, StatusDeleted, res.Status)

	// The stray remote path is reported, never adopted
	assert.Equal(t, ActionRemoteNew, findResult(t, results, "/elsewhere/.gitconfig").Action)
	got, err := rec.Get("/elsewhere/.gitconfig")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPull_FetchRetriesThenSucceeds(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "X")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	remote := &fakeRemote{
		files:      map[string][]byte{entry.Path: []byte("X")},
		fetchFails: 2,
	}
	coord := NewCoordinator(rec, remote, nil)

	results, err := coord.Pull(context.Background(), "origin")
	require.NoError(t, err)
	assert.Equal(t, 3, remote.fetchCalls)
	assert.Equal(t, ActionUnchanged, findResult(t, results, entry.Path).Action)
}

func TestPull_FetchGivesUpAfterBoundedRetries(t *testing.T) {
	rec, _ := setupReconciler(t)

	remote := &fakeRemote{fetchFails: 10}
	coord := NewCoordinator(rec, remote, nil)

	_, err := coord.Pull(context.Background(), "origin")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1+fetchMaxRetries, remote.fetchCalls)
}
