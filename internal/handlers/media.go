package handlers

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
)

// MediaHandler serves uploaded blobs (post photos, avatars) from the
// local storage root under the public media prefix. These routes are
// skipped by the JWT middleware so photo URLs embedded in posts resolve
// without credentials.
type MediaHandler struct {
	prefix string
	root   string
	logger *slog.Logger
}

// NewMediaHandler creates a media handler serving root under prefix.
func NewMediaHandler(log *slog.Logger, prefix, root string) *MediaHandler {
	return &MediaHandler{
		prefix: strings.TrimRight(prefix, "/"),
		root:   root,
		logger: log.With(slog.String("handler", "media")),
	}
}

// Register mounts the static media route on the Echo instance.
func (h *MediaHandler) Register(e *echo.Echo) {
	if h.prefix == "" || h.root == "" {
		return
	}
	e.Static(h.prefix, h.root)
}
