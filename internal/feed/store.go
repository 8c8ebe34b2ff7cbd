package feed

import (
	"context"
	"errors"
)

var (
	// ErrPostNotFound is returned for reads, updates, and deletes of a
	// post that does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrTextTooLong is returned when post text exceeds MaxTextLen.
	ErrTextTooLong = errors.New("post text too long")
	// ErrEmptyText is returned when post text is blank.
	ErrEmptyText = errors.New("post text is empty")
)

// Query selects a window of posts. Results are always ordered by creation
// time descending. An empty AuthorID means no author filter.
type Query struct {
	AuthorID string
	Limit    int
}

// CreateRequest carries the fields of a new post. The store assigns the
// creation timestamp, and the ID too unless the caller supplies one (the
// photo upload path names the blob after the post ID, so it mints the ID
// up front).
type CreateRequest struct {
	ID       string
	UserID   string
	Username string
	Text     string
	PhotoURL string
}

// Store is the post repository. Implementations publish a change event on
// the hub after every successful write so live subscribers can refresh.
type Store interface {
	List(ctx context.Context, q Query) ([]Post, error)
	Get(ctx context.Context, id string) (Post, error)
	Create(ctx context.Context, req CreateRequest) (Post, error)
	// UpdateText replaces only the post's text; all other fields are
	// left untouched.
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}

// ValidateText checks post text bounds.
func ValidateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLen {
		return ErrTextTooLong
	}
	return nil
}
