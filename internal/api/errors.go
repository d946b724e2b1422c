package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/playlist"
	"github.com/stwalsh4118/streamhub/internal/store"
)

// ErrorResponse represents an error response. Notice is the toast the
// dashboard shows for it.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message,omitempty"`
	Notice  *notify.Toast `json:"notice,omitempty"`
}

// respondError maps a service error onto a status code and error body.
func respondError(c *gin.Context, op string, err error) {
	status, code, message := classify(err)

	event := logger.Log.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Log.Error()
	}
	event.Err(err).Str("op", op).Int("status", status).Msg("Request failed")

	toast := notify.Error("%s", message)
	c.JSON(status, ErrorResponse{Error: code, Message: message, Notice: &toast})
}

func classify(err error) (int, string, string) {
	switch {
	case media.IsInvalidVideoURL(err):
		return http.StatusBadRequest, "invalid_url", "That doesn't look like a YouTube link"
	case playlist.IsDuplicateVideo(err):
		return http.StatusConflict, "duplicate_video", playlist.ErrDuplicateVideo.Error()
	case playlist.IsEntryNotFound(err), store.IsNotFound(err):
		return http.StatusNotFound, "not_found", "Entry not found"
	case errors.Is(err, playlist.ErrInvalidScope),
		errors.Is(err, playlist.ErrInvalidScheduleMode),
		errors.Is(err, playlist.ErrInvalidDate),
		errors.Is(err, playlist.ErrInvalidOrder),
		errors.Is(err, db.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "Wrong password"
	case errors.Is(err, auth.ErrNoPasswordConfigured):
		return http.StatusServiceUnavailable, "password_not_configured", "No admin password is configured"
	case errors.Is(err, auth.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_request", auth.ErrEmptyPassword.Error()
	case store.IsStoreError(err):
		return http.StatusInternalServerError, "store_error", "The change could not be saved; nothing was applied"
	default:
		return http.StatusInternalServerError, "internal_error", "Something went wrong, please try again"
	}
}

// badRequest rejects a malformed request body.
func badRequest(c *gin.Context, err error) {
	toast := notify.Error("Invalid request")
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body: " + err.Error(),
		Notice:  &toast,
	})
}
