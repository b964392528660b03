package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, ch chan StatusEvent, path string, want Status) StatusEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Path == path && ev.Status == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event for %s", want, path)
		}
	}
}

func TestMonitor_InitialClassification(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".bashrc")
	writeFile(t, path, "X")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	mon := NewMonitor(rec)
	events := mon.Events().Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mon.Run(ctx)

	ev := waitForEvent(t, events, entry.Path, StatusClean)
	assert.Equal(t, StatusClean, ev.Status)
}

func TestMonitor_DetectsEditAndDelete(t *testing.T) {
	rec, work := setupReconciler(t)
	path := filepath.Join(work, ".vimrc")
	writeFile(t, path, "set nu")
	entry, err := rec.Track(path)
	require.NoError(t, err)

	mon := NewMonitor(rec)
	events := mon.Events().Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mon.Run(ctx)

	waitForEvent(t, events, entry.Path, StatusClean)

	// Edit the file; the watcher should reclassify it as Dirty
	writeFile(t, path, "set number")
	waitForEvent(t, events, entry.Path, StatusDirty)

	// Delete it; Missing follows
	require.NoError(t, os.Remove(path))
	waitForEvent(t, events, entry.Path, StatusMissing)

	// The baseline never moved
	got, err := rec.Get(path)
	require.NoError(t, err)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
}

func TestMonitor_StopsOnCancel(t *testing.T) {
	rec, _ := setupReconciler(t)

	mon := NewMonitor(rec)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
