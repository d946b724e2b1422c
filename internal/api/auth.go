package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/logger"
)

// AuthHandler handles sign-in requests
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new auth handler instance
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	identity, err := h.service.Login(req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	logger.Log.Info().Str("client_ip", c.ClientIP()).Msg("Admin signed in")
	c.JSON(http.StatusOK, identity)
}

// Session handles POST /api/auth/session. An empty or invalid custom token
// yields an anonymous identity.
func (h *AuthHandler) Session(c *gin.Context) {
	var req SessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	identity, err := h.service.SignIn(req.Token)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Session sign-in failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "sign_in_failed",
			Message: "Could not sign in, reconnecting",
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// SetupAuthRoutes registers public sign-in routes
func SetupAuthRoutes(apiGroup *gin.RouterGroup, service *auth.Service) {
	handler := NewAuthHandler(service)
	apiGroup.POST("/auth/login", handler.Login)
	apiGroup.POST("/auth/session", handler.Session)
}
