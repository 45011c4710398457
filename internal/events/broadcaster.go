// Package events fans scan outcomes out to in-process subscribers,
// used by daemon mode to react to completed runs.
package events

import (
	"sync"
	"time"

	"github.com/drivelens/drivelens/internal/metrics"
)

const (
	EventChanged   = "changed"
	EventUnchanged = "unchanged"
)

// Event describes one completed scan run.
type Event struct {
	Type      string `json:"type"`
	Version   string `json:"version"`
	Added     int    `json:"added"`
	Deleted   int    `json:"deleted"`
	Modified  int    `json:"modified"`
	Summary   string `json:"summary"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster manages subscribers and publishes scan events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates an event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a subscriber and returns its event channel. The
// caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	metrics.SetSubscribersActive(b.Count())
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.mu.Unlock()
	metrics.SetSubscribersActive(b.Count())
}

// Publish sends an event to all subscribers. Non-blocking: drops
// events for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
	metrics.RecordEvent(event.Type)
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
