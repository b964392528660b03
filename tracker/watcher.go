package tracker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

// Watcher monitors the directories containing tracked files and feeds
// changed tracked paths into the watch queue.
type Watcher struct {
	tracked map[string]struct{}
	queue   *WatchQueue
	watcher *fsnotify.Watcher
}

// NewWatcher creates a filesystem watcher over the parent directories of
// the given tracked paths. Watches are registered here, synchronously, so
// an edit made the moment NewWatcher returns is already observable; Start
// only drains events.
func NewWatcher(trackedPaths []string, queue *WatchQueue) (*Watcher, error) {
	l := sub("watcher")
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(trackedPaths))
	for _, p := range trackedPaths {
		tracked[p] = struct{}{}
	}

	dirs := make(map[string]struct{})
	for p := range tracked {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			l.Warn("watch add failed", "dir", d, "err", err)
		}
	}
	l.Info("watching", "dirs", len(dirs), "files", len(tracked))

	return &Watcher{
		tracked: tracked,
		queue:   queue,
		watcher: fsw,
	}, nil
}

// Start begins debouncing and forwarding events. Blocks until ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	l := sub("watcher")

	// Debounce timer and pending paths
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounceInterval)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			path := filepath.Clean(event.Name)
			if _, isTracked := w.tracked[path]; !isTracked {
				continue
			}

			pending[path] = struct{}{}
			timer.Reset(debounceInterval)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", "err", err)

		case <-timer.C:
			if len(pending) > 0 {
				paths := make([]string, 0, len(pending))
				for p := range pending {
					paths = append(paths, p)
				}
				w.queue.PushMany(paths)
				l.Debug("flushed pending paths", "count", len(paths))
				pending = make(map[string]struct{})
			}
		}
	}
}

// Close closes the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
