// Package feed implements the post timeline: the Post entity, the Store
// repository interface, a Postgres-backed store, an in-process change hub,
// the live timeline Synchronizer, and the per-post ItemController.
package feed

import (
	"path"
	"time"
)

// MaxTextLen bounds post text, both at creation and when editing.
const MaxTextLen = 180

// Post is one feed entry. Username is denormalized from the author at
// write time; UserID is immutable after creation.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"tweet"`
	PhotoURL  string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"createAt"`
}

// PhotoKey returns the blob storage key for the post's photo. Photos are
// stored per author under posts/<user id>/<post id>.
func PhotoKey(p Post) string {
	return path.Join("posts", p.UserID, p.ID)
}

// AvatarKey returns the blob storage key for a user's avatar.
func AvatarKey(userID string) string {
	return path.Join("avatars", userID)
}
