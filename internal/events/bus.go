// Package events carries job lifecycle notifications from the sync
// scheduler to whoever is watching, decoupling poll passes from rendering.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aidoc-labs/aidoc-go/internal/logutil"
)

// Event types published on the bus.
const (
	TypeJobUpdated    = "job.updated"
	TypeJobSyncFailed = "job.sync_failed"
)

// Event is one notification.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Bus fans events out to subscribers. Delivery is best effort: a subscriber
// that stops draining loses events rather than stalling the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan Event]struct{})}
}

// Publish broadcasts an event, filling in its id and timestamp when unset.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			logutil.Debug("dropping event, subscriber backlog", map[string]interface{}{
				"event_id": evt.ID,
				"type":     evt.Type,
			})
		}
	}
}

// Subscribe registers a subscriber and returns its channel plus a cancel
// func. The channel closes on cancel or when ctx ends.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}
