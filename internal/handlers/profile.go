package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wrenhq/wren/internal/photo"
	"github.com/wrenhq/wren/internal/profile"
	"github.com/wrenhq/wren/internal/users"
)

// ProfileHandler serves the profile screen: the account record, the
// principal's own posts, and display-name / avatar mutations.
type ProfileHandler struct {
	service     *profile.Service
	userService *users.Service
	logger      *slog.Logger
}

// UpdateNameRequest is the body for PUT /profile/name.
type UpdateNameRequest struct {
	DisplayName string `json:"display_name"`
}

// AvatarResponse carries the resolved avatar URL after upload.
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// NewProfileHandler creates the profile handler.
func NewProfileHandler(log *slog.Logger, service *profile.Service, userService *users.Service) *ProfileHandler {
	return &ProfileHandler{
		service:     service,
		userService: userService,
		logger:      log.With(slog.String("handler", "profile")),
	}
}

// Register mounts the profile routes on the Echo instance.
func (h *ProfileHandler) Register(e *echo.Echo) {
	e.GET("/profile", h.Get)
	e.GET("/profile/feed", h.Feed)
	e.PUT("/profile/name", h.UpdateName)
	e.PUT("/profile/avatar", h.UpdateAvatar)
}

// Get returns the authenticated principal's account record.
func (h *ProfileHandler) Get(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// Feed returns the principal's own posts, newest first. One-shot read;
// the profile screen does not subscribe.
func (h *ProfileHandler) Feed(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}
	posts, err := h.service.Fetch(c.Request().Context(), principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

// UpdateName changes the principal's display name.
func (h *ProfileHandler) UpdateName(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}
	var req UpdateNameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateDisplayName(c.Request().Context(), principal, req.DisplayName)
	if err != nil {
		if errors.Is(err, users.ErrEmptyDisplayName) {
			return echo.NewHTTPError(http.StatusBadRequest, "display name must not be empty")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateAvatar accepts a multipart "avatar" image, stores it, and points
// the account record at the new URL.
func (h *ProfileHandler) UpdateAvatar(c echo.Context) error {
	principal, err := requirePrincipal(c, h.userService)
	if err != nil {
		return err
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	url, err := h.service.UpdateAvatar(c.Request().Context(), principal, src, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, photo.ErrNotImage) {
			return echo.NewHTTPError(http.StatusBadRequest, "avatar must be an image")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AvatarResponse{AvatarURL: url})
}
