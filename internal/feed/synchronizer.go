package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Synchronizer keeps a live view of the most recent posts. It holds exactly
// one hub subscription; on every change event it re-reads the window from
// the store and publishes a complete snapshot. Snapshots always replace the
// previous list wholesale, so a consumer is never shown a partially-patched
// view.
type Synchronizer struct {
	store  Store
	hub    *Hub
	limit  int
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	closed    bool
	cancel    func()
	snapshots chan []Post

	closeOnce sync.Once
}

// NewSynchronizer creates a synchronizer over the given store and hub.
// limit caps the published window size.
func NewSynchronizer(log *slog.Logger, store Store, hub *Hub, limit int) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	if limit <= 0 {
		limit = 25
	}
	return &Synchronizer{
		store:  store,
		hub:    hub,
		limit:  limit,
		logger: log.With(slog.String("component", "synchronizer")),
		// Buffer of one: the channel always holds at most the latest
		// snapshot, stale ones are dropped before publishing.
		snapshots: make(chan []Post, 1),
	}
}

// Start establishes the subscription and publishes the initial snapshot.
// It may be called at most once.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("synchronizer is closed")
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("synchronizer already started")
	}
	s.started = true
	events, cancel := s.hub.Subscribe(DefaultBufferSize)
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		cancel()
		return err
	}

	go s.run(events)
	return nil
}

// Snapshots returns the channel on which complete timeline snapshots are
// published. The channel is closed after Close.
func (s *Synchronizer) Snapshots() <-chan []Post {
	return s.snapshots
}

// Close cancels the subscription. It is safe to call before Start, and
// calling it more than once is a no-op.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		cancel := s.cancel
		started := s.started
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if !started {
			// Never subscribed, so no run loop will close the channel.
			close(s.snapshots)
		}
	})
}

func (s *Synchronizer) run(events <-chan Event) {
	defer close(s.snapshots)
	for range events {
		// Each event triggers a full re-read; the event payload is only a
		// wakeup, never a patch.
		if err := s.refresh(context.Background()); err != nil {
			s.logger.Warn("refresh timeline", slog.Any("error", err))
		}
	}
}

// refresh reads the current window and replaces any pending snapshot.
func (s *Synchronizer) refresh(ctx context.Context) error {
	posts, err := s.store.List(ctx, Query{Limit: s.limit})
	if err != nil {
		return err
	}
	if len(posts) > s.limit {
		posts = posts[:s.limit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case <-s.snapshots:
	default:
	}
	select {
	case s.snapshots <- posts:
	default:
	}
	return nil
}
