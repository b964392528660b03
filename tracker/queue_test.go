package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchQueue_PushPop(t *testing.T) {
	q := NewWatchQueue()

	q.Push("/home/u/.bashrc")
	q.Push("/home/u/.vimrc")
	assert.Equal(t, 2, q.Len())

	done := make(chan struct{})
	path, ok := q.Pop(done)
	require.True(t, ok)
	assert.Equal(t, "/home/u/.bashrc", path)

	path, ok = q.Pop(done)
	require.True(t, ok)
	assert.Equal(t, "/home/u/.vimrc", path)

	assert.Equal(t, 0, q.Len())
}

func TestWatchQueue_Dedup(t *testing.T) {
	q := NewWatchQueue()

	q.Push("/home/u/.bashrc")
	q.Push("/home/u/.bashrc")
	q.Push("/home/u/.bashrc")

	assert.Equal(t, 1, q.Len())
}

func TestWatchQueue_Has(t *testing.T) {
	q := NewWatchQueue()

	q.Push("/home/u/.bashrc")
	assert.True(t, q.Has("/home/u/.bashrc"))
	assert.False(t, q.Has("/home/u/.vimrc"))

	done := make(chan struct{})
	q.Pop(done)
	assert.False(t, q.Has("/home/u/.bashrc"))
}

func TestWatchQueue_PopBlocks(t *testing.T) {
	q := NewWatchQueue()
	done := make(chan struct{})

	result := make(chan string, 1)
	go func() {
		path, ok := q.Pop(done)
		if ok {
			result <- path
		}
	}()

	// Should be blocking
	select {
	case <-result:
		t.Fatal("Pop should block when queue is empty")
	case <-time.After(50 * time.Millisecond):
		// Expected
	}

	// Push should unblock
	q.Push("/home/u/.zshrc")

	select {
	case path := <-result:
		assert.Equal(t, "/home/u/.zshrc", path)
	case <-time.After(time.Second):
		t.Fatal("Pop should have unblocked")
	}
}

func TestWatchQueue_PopDone(t *testing.T) {
	q := NewWatchQueue()
	done := make(chan struct{})

	result := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(done)
		result <- ok
	}()

	close(done)

	select {
	case ok := <-result:
		assert.False(t, ok, "Pop should return false when done")
	case <-time.After(time.Second):
		t.Fatal("Pop should have returned")
	}
}

func TestWatchQueue_PushMany(t *testing.T) {
	q := NewWatchQueue()

	q.PushMany([]string{"/a", "/b", "/c", "/a"})
	assert.Equal(t, 3, q.Len()) // "/a" deduped
}
