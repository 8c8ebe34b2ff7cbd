package feed

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the default per-subscriber channel buffer.
const DefaultBufferSize = 16

// EventType identifies the kind of change published on the hub.
type EventType string

const (
	// EventPostCreated is emitted after a post is persisted.
	EventPostCreated EventType = "post_created"
	// EventPostUpdated is emitted after a post's text changes.
	EventPostUpdated EventType = "post_updated"
	// EventPostDeleted is emitted after a post is removed.
	EventPostDeleted EventType = "post_deleted"
)

// Event describes one change to the post collection.
type Event struct {
	Type   EventType `json:"type"`
	PostID string    `json:"postId"`
}

// Publisher publishes change events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Hub is an in-process pub/sub dispatcher for post change events. Every
// subscriber sees every event.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]chan Event
}

// NewHub creates an empty change hub.
func NewHub() *Hub {
	return &Hub{
		streams: map[string]chan Event{},
	}
}

// Publish broadcasts one event to all subscribers. Slow subscribers are
// skipped in a non-blocking way so publishing never stalls the write path.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.streams {
		select {
		case ch <- event:
		default:
			// Drop if the receiver is behind; it will catch up on the
			// next event it does receive, since consumers re-read the
			// full window per event.
		}
	}
}

// Subscribe registers one subscriber. It returns a read-only event channel
// and a cancel function. Cancel is idempotent; the channel is closed on
// cancel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if h == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	streamID := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.streams[streamID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if current, ok := h.streams[streamID]; ok {
				delete(h.streams, streamID)
				close(current)
			}
			h.mu.Unlock()
		})
	}

	return ch, cancel
}
