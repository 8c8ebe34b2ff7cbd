package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wrenhq/wren/internal/feed"
	"github.com/wrenhq/wren/internal/photo"
	"github.com/wrenhq/wren/internal/storage"
	"github.com/wrenhq/wren/internal/users"
)

// FeedHandler serves the timeline: one-shot reads, the live WebSocket
// stream, and the create/edit/delete flows.
type FeedHandler struct {
	store       feed.Store
	hub         *feed.Hub
	userService *users.Service
	blobs       storage.Provider
	orphans     feed.OrphanHandler
	window      int
	logger      *slog.Logger
}

// UpdatePostRequest is the body for PATCH /feed/:id. Only the text can
// change.
type UpdatePostRequest struct {
	Text string `json:"tweet"`
}

// NewFeedHandler creates the feed handler.
func NewFeedHandler(log *slog.Logger, store feed.Store, hub *feed.Hub, userService *users.Service, blobs storage.Provider, orphans feed.OrphanHandler, window int) *FeedHandler {
	if window <= 0 {
		window = 25
	}
	return &FeedHandler{
		store:       store,
		hub:         hub,
		userService: userService,
		blobs:       blobs,
		orphans:     orphans,
		window:      window,
		logger:      log.With(slog.String("handler", "feed")),
	}
}

// Register mounts the feed routes on the Echo instance.
func (h *FeedHandler) Register(e *echo.Echo) {
	e.GET("/feed", h.List)
	e.GET("/feed/live", h.Live)
	e.POST("/feed", h.Create)
	e.PATCH("/feed/:id", h.Update)
	e.DELETE("/feed/:id", h.Delete)
}

// List returns the current timeline window, newest first.
func (h *FeedHandler) List(c echo.Context) error {
	posts, err := h.store.List(c.Request().Context(), feed.Query{Limit: h.window})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

// Live upgrades to a WebSocket and streams complete timeline snapshots.
// Each message replaces the previous list wholesale. The subscription is
// torn down when the client goes away.
func (h *FeedHandler) Live(c echo.Context) error {
	if _, err := requirePrincipal(c, h.userService); err != nil {
		return err
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	sync := feed.NewSynchronizer(h.logger, h.store, h.hub, h.window)
	defer sync.Close()

	// CloseRead cancels the context when the client disconnects; the
	// synchronizer teardown then ends the snapshot loop.
	ctx := conn.CloseRead(c.Request().Context())
	if err := sync.Start(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sync.Close()
	}()

	for snapshot := range sync.Snapshots() {
		if err := wsjson.Write(ctx, conn, snapshot); err != nil {
			break
		}
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}

// Create posts a new feed item for the authenticated principal. The body
// is multipart: a "tweet" text field and an optional "photo" image file.
func (h *FeedHandler) Create(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(c.FormValue("tweet"))
	req := feed.CreateRequest{
		UserID:   principal.ID,
		Username: principal.DisplayName,
		Text:     text,
	}

	if file, fileErr := c.FormFile("photo"); fileErr == nil && file != nil {
		if h.blobs == nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "blob storage not configured")
		}
		src, openErr := file.Open()
		if openErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, openErr.Error())
		}
		defer src.Close()

		body, _, sniffErr := photo.SniffImage(src, file.Header.Get("Content-Type"))
		if sniffErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "photo must be an image")
		}

		// The blob is named after the post ID, so mint the ID before the
		// upload and create the row with it afterwards.
		req.ID = uuid.NewString()
		key := feed.PhotoKey(feed.Post{ID: req.ID, UserID: principal.ID})
		if putErr := h.blobs.Put(c.Request().Context(), key, body); putErr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, putErr.Error())
		}
		req.PhotoURL = h.blobs.ResolveURL(key)
	}

	post, err := h.store.Create(c.Request().Context(), req)
	if err != nil {
		if req.PhotoURL != "" && h.orphans != nil {
			// The row never landed; the uploaded blob is an orphan.
			h.orphans.HandleOrphan(feed.PhotoKey(feed.Post{ID: req.ID, UserID: principal.ID}), err)
		}
		if errors.Is(err, feed.ErrEmptyText) || errors.Is(err, feed.ErrTextTooLong) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, post)
}

// Update edits a post's text through the item controller: owner-only,
// text field only.
func (h *FeedHandler) Update(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}
	var req UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctrl := feed.NewItemController(h.logger, principal, post, h.store, h.blobs, h.orphans)
	if err := ctrl.BeginEdit(); err != nil {
		if errors.Is(err, feed.ErrNotOwner) {
			return echo.NewHTTPError(http.StatusForbidden, "not the post owner")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := ctrl.SetDraft(strings.TrimSpace(req.Text)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := ctrl.ConfirmEdit(c.Request().Context()); err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		if errors.Is(err, feed.ErrEmptyText) || errors.Is(err, feed.ErrTextTooLong) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ctrl.Post())
}

// Delete removes a post. The client must send confirm=true, the explicit
// confirmation step; the post row goes first, then the photo blob.
func (h *FeedHandler) Delete(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}

	post, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	confirmed := c.QueryParam("confirm") == "true"
	ctrl := feed.NewItemController(h.logger, principal, post, h.store, h.blobs, h.orphans)
	if err := ctrl.Delete(c.Request().Context(), confirmed); err != nil {
		switch {
		case errors.Is(err, feed.ErrNotOwner):
			return echo.NewHTTPError(http.StatusForbidden, "not the post owner")
		case errors.Is(err, feed.ErrNotConfirmed):
			return echo.NewHTTPError(http.StatusBadRequest, "delete requires confirm=true")
		case errors.Is(err, feed.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}
