// Package profile implements the profile screen: a one-shot read of the
// principal's own posts plus display-name and avatar mutations.
package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/wrenhq/wren/internal/feed"
	"github.com/wrenhq/wren/internal/photo"
	"github.com/wrenhq/wren/internal/session"
	"github.com/wrenhq/wren/internal/storage"
	"github.com/wrenhq/wren/internal/users"
)

// Identity is the slice of the users service the profile screen needs.
type Identity interface {
	Get(ctx context.Context, userID string) (users.User, error)
	UpdateProfile(ctx context.Context, userID string, req users.UpdateProfileRequest) (users.User, error)
}

// Service drives the profile screen.
type Service struct {
	posts    feed.Store
	identity Identity
	blobs    storage.Provider
	window   int
	logger   *slog.Logger
}

// NewService creates a profile service. window caps the own-posts fetch.
func NewService(log *slog.Logger, posts feed.Store, identity Identity, blobs storage.Provider, window int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if window <= 0 {
		window = 25
	}
	return &Service{
		posts:    posts,
		identity: identity,
		blobs:    blobs,
		window:   window,
		logger:   log.With(slog.String("service", "profile")),
	}
}

// Get returns the principal's account record.
func (s *Service) Get(ctx context.Context, principal session.Principal) (users.User, error) {
	if s.identity == nil {
		return users.User{}, fmt.Errorf("profile service not configured")
	}
	return s.identity.Get(ctx, principal.ID)
}

// Fetch materializes the principal's own posts once: author-filtered,
// newest first, bounded by the window. It does not subscribe; the list is
// a point-in-time read.
func (s *Service) Fetch(ctx context.Context, principal session.Principal) ([]feed.Post, error) {
	if s.posts == nil {
		return nil, fmt.Errorf("profile service not configured")
	}
	return s.posts.List(ctx, feed.Query{AuthorID: principal.ID, Limit: s.window})
}

// UpdateDisplayName sets the principal's display name. A blank name is
// rejected with users.ErrEmptyDisplayName.
func (s *Service) UpdateDisplayName(ctx context.Context, principal session.Principal, name string) (users.User, error) {
	if s.identity == nil {
		return users.User{}, fmt.Errorf("profile service not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return users.User{}, users.ErrEmptyDisplayName
	}
	return s.identity.UpdateProfile(ctx, principal.ID, users.UpdateProfileRequest{DisplayName: &name})
}

// UpdateAvatar uploads the image to blob storage under the principal's
// avatar key, resolves its public URL, then writes the URL to the
// identity record. Returns the resolved URL.
func (s *Service) UpdateAvatar(ctx context.Context, principal session.Principal, reader io.Reader, declaredMime string) (string, error) {
	if s.identity == nil || s.blobs == nil {
		return "", fmt.Errorf("profile service not configured")
	}

	body, _, err := photo.SniffImage(reader, declaredMime)
	if err != nil {
		return "", err
	}

	key := feed.AvatarKey(principal.ID)
	if err := s.blobs.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	url := s.blobs.ResolveURL(key)

	if _, err := s.identity.UpdateProfile(ctx, principal.ID, users.UpdateProfileRequest{AvatarURL: &url}); err != nil {
		return "", fmt.Errorf("update avatar url: %w", err)
	}
	return url, nil
}
