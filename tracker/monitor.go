package tracker

import (
	"context"
)

// Monitor drives watch mode: it seeds the queue with every tracked path,
// starts the filesystem watcher, and reclassifies each popped path,
// publishing status changes on the event bus. Watch mode is read-only with
// respect to baselines; it never advances a fingerprint.
type Monitor struct {
	rec   *Reconciler
	queue *WatchQueue
	bus   *EventBus
	last  map[string]Status
}

// NewMonitor creates a monitor over the given reconciler.
func NewMonitor(rec *Reconciler) *Monitor {
	return &Monitor{
		rec:   rec,
		queue: NewWatchQueue(),
		bus:   NewEventBus(),
		last:  make(map[string]Status),
	}
}

// Events returns the bus CLI clients subscribe to.
func (m *Monitor) Events() *EventBus {
	return m.bus
}

// Run blocks until ctx is cancelled. Initial classification of every
// tracked entry is published before live events begin.
func (m *Monitor) Run(ctx context.Context) error {
	l := sub("monitor")

	entries, err := m.rec.store.List()
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	// Watches are live before the initial classifications are queued, so
	// an edit arriving right after its Clean event is still caught.
	watcher, err := NewWatcher(paths, m.queue)
	if err != nil {
		return err
	}
	m.queue.PushMany(paths)

	go func() {
		if werr := watcher.Start(ctx); werr != nil && ctx.Err() == nil {
			l.Warn("watcher stopped unexpectedly", "err", werr)
		}
	}()

	l.Info("watch loop started", "tracked", len(paths))
	done := ctx.Done()
	for {
		path, ok := m.queue.Pop(done)
		if !ok {
			break
		}
		m.evaluate(path)
	}

	watcher.Close()
	l.Info("watch loop stopped")
	return ctx.Err()
}

// evaluate reclassifies one path and publishes the status if it changed.
func (m *Monitor) evaluate(path string) {
	l := sub("monitor")
	es, err := m.rec.Status(path)
	if err != nil {
		l.Warn("status check failed", "path", path, "err", err)
		return
	}

	if prev, seen := m.last[path]; seen && prev == es.Status {
		return
	}
	m.last[path] = es.Status

	l.Debug("status changed", "path", path, "status", es.Status.String())
	m.bus.Publish(StatusEvent{Path: path, Status: es.Status, At: nowFunc()})
}
