package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wrenhq/wren/internal/session"
	"github.com/wrenhq/wren/internal/storage"
)

// State is the ItemController mode.
type State string

const (
	// StateViewing is the initial, read-only mode.
	StateViewing State = "viewing"
	// StateEditing holds a local draft of the post text.
	StateEditing State = "editing"
)

var (
	// ErrNotOwner is returned when the acting principal is not the post's
	// author.
	ErrNotOwner = errors.New("principal does not own this post")
	// ErrNotConfirmed is returned when a delete is requested without the
	// explicit confirmation step.
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrNotEditing is returned for draft operations outside Editing.
	ErrNotEditing = errors.New("controller is not editing")
)

// OrphanHandler receives the storage key of a photo blob whose delete
// failed after the post row was already removed. The configured cleanup
// policy decides whether the key is retried or accepted as a leak.
type OrphanHandler interface {
	HandleOrphan(key string, cause error)
}

// ItemController drives edit and delete flows for one rendered post on
// behalf of one principal. It is not safe for concurrent use; each
// rendered item owns its controller.
type ItemController struct {
	principal session.Principal
	post      Post
	store     Store
	blobs     storage.Provider
	orphans   OrphanHandler
	logger    *slog.Logger

	state State
	draft string
}

// NewItemController creates a controller for post acting as principal.
// orphans may be nil, in which case a leaked photo blob is only logged.
func NewItemController(log *slog.Logger, principal session.Principal, post Post, store Store, blobs storage.Provider, orphans OrphanHandler) *ItemController {
	if log == nil {
		log = slog.Default()
	}
	return &ItemController{
		principal: principal,
		post:      post,
		store:     store,
		blobs:     blobs,
		orphans:   orphans,
		logger:    log.With(slog.String("component", "item_controller"), slog.String("post_id", post.ID)),
		state:     StateViewing,
	}
}

// State returns the current mode.
func (c *ItemController) State() State {
	return c.state
}

// Post returns the post this controller manages.
func (c *ItemController) Post() Post {
	return c.post
}

// CanModify reports whether edit and delete controls are available, i.e.
// whether the acting principal authored the post.
func (c *ItemController) CanModify() bool {
	return c.principal.Owns(c.post.UserID)
}

// BeginEdit transitions Viewing to Editing, seeding the draft with the
// current post text. A non-owner gets ErrNotOwner and the state is left
// untouched.
func (c *ItemController) BeginEdit() error {
	if !c.CanModify() {
		return ErrNotOwner
	}
	if c.state == StateEditing {
		return nil
	}
	c.draft = c.post.Text
	c.state = StateEditing
	return nil
}

// Draft returns the local draft text.
func (c *ItemController) Draft() string {
	return c.draft
}

// SetDraft replaces the local draft. The draft is bounded to the same
// maximum length as creation.
func (c *ItemController) SetDraft(text string) error {
	if c.state != StateEditing {
		return ErrNotEditing
	}
	if len([]rune(text)) > MaxTextLen {
		return ErrTextTooLong
	}
	c.draft = text
	return nil
}

// ConfirmEdit issues exactly one partial update carrying only the draft
// text, then returns to Viewing whether or not the update succeeded. The
// store error, if any, is returned to the caller.
func (c *ItemController) ConfirmEdit(ctx context.Context) error {
	if c.state != StateEditing {
		return ErrNotEditing
	}
	err := c.store.UpdateText(ctx, c.post.ID, c.draft)
	if err == nil {
		c.post.Text = c.draft
	}
	c.state = StateViewing
	return err
}

// Delete removes the post. It is owner-only and requires confirmed=true
// (the explicit human confirmation step). The post row is deleted first;
// only then is the photo blob removed. A failed row delete suppresses the
// blob delete entirely. A failed blob delete after a successful row delete
// leaves the post gone; the orphaned key is handed to the cleanup policy.
func (c *ItemController) Delete(ctx context.Context, confirmed bool) error {
	if !c.CanModify() {
		return ErrNotOwner
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := c.store.Delete(ctx, c.post.ID); err != nil {
		return err
	}

	if c.post.PhotoURL == "" || c.blobs == nil {
		return nil
	}
	key := PhotoKey(c.post)
	if err := c.blobs.Delete(ctx, key); err != nil {
		c.logger.Warn("photo blob delete failed after post delete",
			slog.String("key", key), slog.Any("error", err))
		if c.orphans != nil {
			c.orphans.HandleOrphan(key, err)
		}
	}
	return nil
}
