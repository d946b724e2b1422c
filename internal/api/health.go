package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Component health values
const (
	healthHealthy   = "healthy"
	healthUnhealthy = "unhealthy"
)

// HealthResponse reports the database, the optional redis relay and the
// number of connected displays.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
	Displays int    `json:"displays"`
	Time     string `json:"time"`
	Error    string `json:"error,omitempty"`
}

// Pinger checks a backing service.
type Pinger interface {
	Health(ctx context.Context) error
}

// DisplayCounter reports connected displays.
type DisplayCounter interface {
	Active() int
}

// HealthDeps are the components the health check looks at. Redis and
// Displays may be nil.
type HealthDeps struct {
	Database Pinger
	Redis    Pinger
	Displays DisplayCounter
}

// HealthHandler handles health check requests
type HealthHandler struct {
	deps HealthDeps
}

// Check answers 503 when the database is down. A failing redis only
// degrades the status: each instance keeps serving its own displays.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: healthHealthy,
		Time:     time.Now().UTC().Format(time.RFC3339),
	}
	if h.deps.Displays != nil {
		resp.Displays = h.deps.Displays.Active()
	}

	if h.deps.Redis != nil {
		resp.Redis = healthHealthy
		if err := h.deps.Redis.Health(ctx); err != nil {
			resp.Status = "degraded"
			resp.Redis = healthUnhealthy
			resp.Error = err.Error()
		}
	}

	if err := h.deps.Database.Health(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = healthUnhealthy
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, deps HealthDeps) {
	handler := &HealthHandler{deps: deps}
	apiGroup.GET("/health", handler.Check)
}
