package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wrenhq/wren/internal/feed"
	"github.com/wrenhq/wren/internal/users"
)

type stubStore struct {
	posts   []feed.Post
	listErr error
}

func (s *stubStore) List(ctx context.Context, q feed.Query) ([]feed.Post, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if q.Limit > 0 && len(s.posts) > q.Limit {
		return s.posts[:q.Limit], nil
	}
	return s.posts, nil
}

func (s *stubStore) Get(ctx context.Context, id string) (feed.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return feed.Post{}, feed.ErrPostNotFound
}

func (s *stubStore) Create(ctx context.Context, req feed.CreateRequest) (feed.Post, error) {
	return feed.Post{}, feed.ErrEmptyText
}

func (s *stubStore) UpdateText(ctx context.Context, id, text string) error {
	return feed.ErrPostNotFound
}

func (s *stubStore) Delete(ctx context.Context, id string) error {
	return feed.ErrPostNotFound
}

func TestPingHandler(t *testing.T) {
	t.Parallel()

	e := echo.New()
	handler := NewPingHandler(slog.Default())
	handler.Register(e)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode ping body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}

	req = httptest.NewRequest(http.MethodHead, "/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health status 200, got %d", rec.Code)
	}
}

func TestFeedList(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &stubStore{posts: []feed.Post{
		{ID: "p2", UserID: "u1", Username: "alice", Text: "second", CreatedAt: now},
		{ID: "p1", UserID: "u1", Username: "alice", Text: "first", CreatedAt: now.Add(-time.Minute)},
	}}

	e := echo.New()
	handler := NewFeedHandler(slog.Default(), store, feed.NewHub(), nil, nil, nil, 25)
	e.GET("/feed", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var posts []feed.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode feed body: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != "p2" {
		t.Fatalf("expected newest post first, got %q", posts[0].ID)
	}
}

func TestFeedListWindow(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	for i := 0; i < 40; i++ {
		store.posts = append(store.posts, feed.Post{ID: "p", Text: "x"})
	}

	e := echo.New()
	handler := NewFeedHandler(slog.Default(), store, feed.NewHub(), nil, nil, nil, 25)
	e.GET("/feed", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var posts []feed.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode feed body: %v", err)
	}
	if len(posts) != 25 {
		t.Fatalf("expected window of 25 posts, got %d", len(posts))
	}
}

func TestPostWireFormat(t *testing.T) {
	t.Parallel()

	post := feed.Post{
		ID:        "p1",
		UserID:    "u1",
		Username:  "alice",
		Text:      "hello",
		PhotoURL:  "/media/posts/u1/p1",
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
	}
	raw, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("marshal post: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal post: %v", err)
	}
	for _, key := range []string{"id", "userId", "username", "tweet", "photo", "createAt"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected wire field %q in %s", key, raw)
		}
	}
}

func TestPrincipalFromUser(t *testing.T) {
	t.Parallel()

	user := users.User{
		ID:          "u1",
		Username:    "alice",
		DisplayName: "Alice",
		AvatarURL:   "/media/avatars/u1",
	}
	principal := principalFromUser(user)
	if principal.ID != "u1" || principal.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if !principal.Owns("u1") {
		t.Fatalf("expected principal to own its own id")
	}
	if principal.Owns("u2") {
		t.Fatalf("expected principal not to own another id")
	}
}

func TestMediaHandlerRegisterEmpty(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewMediaHandler(slog.Default(), "", "").Register(e)
	if len(e.Routes()) != 0 {
		t.Fatalf("expected no routes for empty media config, got %d", len(e.Routes()))
	}
}
