package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenhq/wren/internal/db"
)

// PGStore is the PostgreSQL-backed post repository. Successful writes are
// published on the hub so live timelines refresh.
type PGStore struct {
	pool   *pgxpool.Pool
	hub    Publisher
	logger *slog.Logger
}

// NewPGStore creates a Postgres store publishing change events on hub.
func NewPGStore(log *slog.Logger, pool *pgxpool.Pool, hub Publisher) *PGStore {
	if log == nil {
		log = slog.Default()
	}
	return &PGStore{
		pool:   pool,
		hub:    hub,
		logger: log.With(slog.String("store", "posts")),
	}
}

const postColumns = "id, user_id, username, body, photo_url, created_at"

// List returns the query window, newest first.
func (s *PGStore) List(ctx context.Context, q Query) ([]Post, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("post store not configured")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}

	var (
		rows pgx.Rows
		err  error
	)
	if strings.TrimSpace(q.AuthorID) != "" {
		authorID, parseErr := db.ParseUUID(q.AuthorID)
		if parseErr != nil {
			return nil, parseErr
		}
		rows, err = s.pool.Query(ctx,
			"SELECT "+postColumns+" FROM posts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
			authorID, int32(limit))
	} else {
		rows, err = s.pool.Query(ctx,
			"SELECT "+postColumns+" FROM posts ORDER BY created_at DESC LIMIT $1",
			int32(limit))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]Post, 0, limit)
	for rows.Next() {
		post, scanErr := scanPost(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Get returns one post by ID.
func (s *PGStore) Get(ctx context.Context, id string) (Post, error) {
	if s.pool == nil {
		return Post{}, fmt.Errorf("post store not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Post{}, err
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = $1", pgID)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, err
	}
	return post, nil
}

// Create inserts a post. The database assigns the creation time, and the
// ID too unless the request carries one.
func (s *PGStore) Create(ctx context.Context, req CreateRequest) (Post, error) {
	if s.pool == nil {
		return Post{}, fmt.Errorf("post store not configured")
	}
	if err := ValidateText(req.Text); err != nil {
		return Post{}, err
	}
	userID, err := db.ParseUUID(req.UserID)
	if err != nil {
		return Post{}, err
	}

	var row pgx.Row
	if strings.TrimSpace(req.ID) != "" {
		id, parseErr := db.ParseUUID(req.ID)
		if parseErr != nil {
			return Post{}, parseErr
		}
		row = s.pool.QueryRow(ctx,
			"INSERT INTO posts (id, user_id, username, body, photo_url) VALUES ($1, $2, $3, $4, $5) RETURNING "+postColumns,
			id, userID, req.Username, req.Text, db.TextOrNull(req.PhotoURL))
	} else {
		row = s.pool.QueryRow(ctx,
			"INSERT INTO posts (user_id, username, body, photo_url) VALUES ($1, $2, $3, $4) RETURNING "+postColumns,
			userID, req.Username, req.Text, db.TextOrNull(req.PhotoURL))
	}
	post, err := scanPost(row)
	if err != nil {
		return Post{}, err
	}
	s.publish(Event{Type: EventPostCreated, PostID: post.ID})
	return post, nil
}

// UpdateText replaces only the post's text.
func (s *PGStore) UpdateText(ctx context.Context, id, text string) error {
	if s.pool == nil {
		return fmt.Errorf("post store not configured")
	}
	if err := ValidateText(text); err != nil {
		return err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, "UPDATE posts SET body = $2 WHERE id = $1", pgID, text)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	s.publish(Event{Type: EventPostUpdated, PostID: id})
	return nil
}

// Delete removes the post row. The caller owns photo blob cleanup.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	if s.pool == nil {
		return fmt.Errorf("post store not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", pgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	s.publish(Event{Type: EventPostDeleted, PostID: id})
	return nil
}

func (s *PGStore) publish(event Event) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(event)
}

func scanPost(row pgx.Row) (Post, error) {
	var (
		id        pgtype.UUID
		userID    pgtype.UUID
		username  string
		body      string
		photoURL  pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &userID, &username, &body, &photoURL, &createdAt); err != nil {
		return Post{}, err
	}
	return Post{
		ID:        db.UUIDToString(id),
		UserID:    db.UUIDToString(userID),
		Username:  username,
		Text:      body,
		PhotoURL:  db.TextToString(photoURL),
		CreatedAt: db.TimeFromPg(createdAt),
	}, nil
}
