package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the synchronizer and controller
// tests. Like PGStore it publishes a change event after every write.
type memStore struct {
	mu    sync.Mutex
	posts map[string]Post
	hub   Publisher
	seq   int
}

func newMemStore(hub Publisher) *memStore {
	return &memStore{
		posts: map[string]Post{},
		hub:   hub,
	}
}

func (s *memStore) put(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
}

func (s *memStore) List(ctx context.Context, q Query) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if q.AuthorID != "" && p.UserID != q.AuthorID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return p, nil
}

func (s *memStore) Create(ctx context.Context, req CreateRequest) (Post, error) {
	if err := ValidateText(req.Text); err != nil {
		return Post{}, err
	}
	s.mu.Lock()
	s.seq++
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("p%d", s.seq)
	}
	p := Post{
		ID:        id,
		UserID:    req.UserID,
		Username:  req.Username,
		Text:      req.Text,
		PhotoURL:  req.PhotoURL,
		CreatedAt: time.UnixMilli(int64(s.seq)),
	}
	s.posts[p.ID] = p
	s.mu.Unlock()
	s.publish(Event{Type: EventPostCreated, PostID: p.ID})
	return p, nil
}

func (s *memStore) UpdateText(ctx context.Context, id, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}
	s.mu.Lock()
	p, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return ErrPostNotFound
	}
	p.Text = text
	s.posts[id] = p
	s.mu.Unlock()
	s.publish(Event{Type: EventPostUpdated, PostID: id})
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return ErrPostNotFound
	}
	delete(s.posts, id)
	s.mu.Unlock()
	s.publish(Event{Type: EventPostDeleted, PostID: id})
	return nil
}

func (s *memStore) publish(event Event) {
	if s.hub != nil {
		s.hub.Publish(event)
	}
}
