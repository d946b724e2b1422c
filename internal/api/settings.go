package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/notify"
)

// SettingsResponse reports whether a changed password is in effect
type SettingsResponse struct {
	PasswordOverride bool          `json:"password_override"`
	Notice           *notify.Toast `json:"notice,omitempty"`
}

// SettingsHandler handles admin settings requests
type SettingsHandler struct {
	passwords *auth.Passwords
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(passwords *auth.Passwords) *SettingsHandler {
	return &SettingsHandler{passwords: passwords}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, SettingsResponse{PasswordOverride: h.passwords.HasOverride()})
}

// ChangePassword handles PUT /api/settings/password
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.passwords.Change(ctx, req.Password); err != nil {
		respondError(c, "change_password", err)
		return
	}

	t := notify.Success("Password changed")
	c.JSON(http.StatusOK, SettingsResponse{PasswordOverride: true, Notice: &t})
}

// ResetPassword handles DELETE /api/settings/password
func (h *SettingsHandler) ResetPassword(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.passwords.Reset(ctx); err != nil {
		respondError(c, "reset_password", err)
		return
	}

	t := notify.Success("Password reset to default")
	c.JSON(http.StatusOK, SettingsResponse{PasswordOverride: false, Notice: &t})
}

// SetupSettingsRoutes registers settings routes on an admin group
func SetupSettingsRoutes(adminGroup *gin.RouterGroup, passwords *auth.Passwords) {
	handler := NewSettingsHandler(passwords)
	adminGroup.GET("/settings", handler.GetSettings)
	adminGroup.PUT("/settings/password", handler.ChangePassword)
	adminGroup.DELETE("/settings/password", handler.ResetPassword)
}
