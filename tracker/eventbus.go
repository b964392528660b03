package tracker

import (
	gosync "sync"
	"time"
)

// StatusEvent is published whenever watch mode reclassifies a tracked path.
type StatusEvent struct {
	Path   string    `json:"path"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// EventBus broadcasts StatusEvents to all subscribers.
type EventBus struct {
	mu      gosync.RWMutex
	clients map[chan StatusEvent]struct{}
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		clients: make(map[chan StatusEvent]struct{}),
	}
}

// Subscribe registers a new client and returns its event channel.
func (b *EventBus) Subscribe() chan StatusEvent {
	ch := make(chan StatusEvent, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *EventBus) Unsubscribe(ch chan StatusEvent) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish sends an event to all subscribers.
// Slow clients are skipped (non-blocking send).
func (b *EventBus) Publish(event StatusEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- event:
		default:
			// slow client, drop event
		}
	}
}
