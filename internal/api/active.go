package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/schedule"
)

// ActiveResponse lists what displays are playing today
type ActiveResponse struct {
	Version uint64           `json:"version"`
	Today   string           `json:"today"`
	Entries []*EntryResponse `json:"entries"`
}

// ActiveHandler serves the public active set
type ActiveHandler struct {
	source EntrySource
	now    func() time.Time
}

// NewActiveHandler creates a new active set handler
func NewActiveHandler(source EntrySource, now func() time.Time) *ActiveHandler {
	if now == nil {
		now = time.Now
	}
	return &ActiveHandler{source: source, now: now}
}

// GetActive handles GET /api/active
func (h *ActiveHandler) GetActive(c *gin.Context) {
	snap := h.source.Entries()
	today := media.Today(h.now())
	c.JSON(http.StatusOK, ActiveResponse{
		Version: snap.Version,
		Today:   string(today),
		Entries: toEntryResponses(schedule.ComputeActiveSet(snap.Entries, today), today),
	})
}

// SetupActiveRoutes registers public playlist routes
func SetupActiveRoutes(apiGroup *gin.RouterGroup, source EntrySource, now func() time.Time) {
	handler := NewActiveHandler(source, now)
	apiGroup.GET("/active", handler.GetActive)
}
