package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/playlist"
	"github.com/stwalsh4118/streamhub/internal/store"
)

const requestTimeout = 5 * time.Second

// Notifier broadcasts toasts to other dashboards.
type Notifier interface {
	Notify(t notify.Toast)
}

// EntrySource reads the current playlist snapshot.
type EntrySource interface {
	Entries() store.Snapshot
}

// EntryHandler handles playlist API requests
type EntryHandler struct {
	service   *playlist.Service
	reorderer *playlist.Reorderer
	source    EntrySource
	notifier  Notifier
	now       func() time.Time
}

// NewEntryHandler creates a new entry handler instance. notifier may be nil.
func NewEntryHandler(service *playlist.Service, reorderer *playlist.Reorderer, source EntrySource, notifier Notifier, now func() time.Time) *EntryHandler {
	if now == nil {
		now = time.Now
	}
	return &EntryHandler{service: service, reorderer: reorderer, source: source, notifier: notifier, now: now}
}

func (h *EntryHandler) today() media.DateToken {
	return media.Today(h.now())
}

// announce forwards a success toast to other dashboards and returns it for the response.
func (h *EntryHandler) announce(t notify.Toast) *notify.Toast {
	if h.notifier != nil {
		h.notifier.Notify(t)
	}
	return &t
}

// entryResponse converts one entry using its position in the current snapshot.
func (h *EntryHandler) entryResponse(id uuid.UUID) *EntryResponse {
	entries := h.source.Entries().Entries
	for i, e := range entries {
		if e.ID == id {
			return toEntryResponse(e, h.today(), i+1)
		}
	}
	return nil
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid entry ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// ListEntries handles GET /api/entries
func (h *EntryHandler) ListEntries(c *gin.Context) {
	snap := h.source.Entries()
	today := h.today()
	c.JSON(http.StatusOK, EntryListResponse{
		Version: snap.Version,
		Today:   string(today),
		Entries: toEntryResponses(snap.Entries, today),
	})
}

// CreateEntry handles POST /api/entries
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.service.Create(ctx, req.input())
	if err != nil {
		respondError(c, "create_entry", err)
		return
	}

	logger.Log.Info().
		Str("entry_id", entry.ID.String()).
		Str("video_ref", entry.VideoRef).
		Msg("Entry created successfully")

	c.JSON(http.StatusCreated, EntryMutationResponse{
		Entry:  h.entryResponse(entry.ID),
		Notice: h.announce(notify.Success("Added %q", entry.Title)),
	})
}

// UpdateEntry handles PUT /api/entries/:id
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	n, err := h.service.Edit(ctx, id, req.input())
	if err != nil {
		respondError(c, "update_entry", err)
		return
	}

	msg := notify.Success("Entry updated")
	if n > 1 {
		msg = notify.Success("Updated %d scheduled copies", n)
	}
	c.JSON(http.StatusOK, AffectedResponse{Affected: n, Notice: h.announce(msg)})
}

// DeleteEntry handles DELETE /api/entries/:id?scope=instance|campaign
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	scope := playlist.DeleteScope(c.DefaultQuery("scope", string(playlist.ScopeInstance)))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	n, err := h.service.Delete(ctx, id, scope)
	if err != nil {
		respondError(c, "delete_entry", err)
		return
	}

	msg := notify.Success("Entry deleted")
	if n > 1 {
		msg = notify.Success("Deleted %d scheduled copies", n)
	}
	c.JSON(http.StatusOK, AffectedResponse{Affected: n, Notice: h.announce(msg)})
}

// GetDeletePlan handles GET /api/entries/:id/delete-plan
func (h *EntryHandler) GetDeletePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	plan, err := h.service.PlanDelete(id)
	if err != nil {
		respondError(c, "plan_delete", err)
		return
	}

	c.JSON(http.StatusOK, DeletePlanResponse{
		Entry:        h.entryResponse(plan.Entry.ID),
		CampaignSize: plan.CampaignSize,
		Confirmation: plan.Confirmation,
	})
}

// DuplicateEntry handles POST /api/entries/:id/duplicate
func (h *EntryHandler) DuplicateEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.service.Duplicate(ctx, id)
	if err != nil {
		respondError(c, "duplicate_entry", err)
		return
	}

	c.JSON(http.StatusCreated, EntryMutationResponse{
		Entry:  h.entryResponse(entry.ID),
		Notice: h.announce(notify.Success("Scheduled another copy of %q", entry.Title)),
	})
}

// ToggleVisibility handles POST /api/entries/:id/visibility
func (h *EntryHandler) ToggleVisibility(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	visible, n, err := h.service.ToggleVisibility(ctx, id)
	if err != nil {
		respondError(c, "toggle_visibility", err)
		return
	}

	msg := notify.Info("Hidden from displays")
	if visible {
		msg = notify.Info("Shown on displays")
	}
	c.JSON(http.StatusOK, AffectedResponse{Affected: n, Visible: &visible, Notice: h.announce(msg)})
}

// ReorderEntries handles PUT /api/entries/order
func (h *EntryHandler) ReorderEntries(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ids := make([]uuid.UUID, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Invalid entry ID format: " + raw,
			})
			return
		}
		ids[i] = id
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.reorderer.CommitOrder(ctx, ids); err != nil {
		respondError(c, "reorder_entries", err)
		return
	}

	c.JSON(http.StatusOK, AffectedResponse{Affected: len(ids), Notice: h.announce(notify.Success("Order saved"))})
}

// MoveEntry handles POST /api/entries/:id/move
func (h *EntryHandler) MoveEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.reorderer.MoveBy(ctx, id, req.Delta); err != nil {
		respondError(c, "move_entry", err)
		return
	}

	c.JSON(http.StatusOK, EntryMutationResponse{Entry: h.entryResponse(id)})
}

// ListCampaigns handles GET /api/campaigns
func (h *EntryHandler) ListCampaigns(c *gin.Context) {
	today := h.today()
	all := h.source.Entries().Entries
	campaigns := h.service.Campaigns()

	out := make([]*CampaignResponse, 0, len(campaigns))
	for _, cp := range campaigns {
		members := make([]*EntryResponse, len(cp.Members))
		for i, m := range cp.Members {
			members[i] = toEntryResponse(m, today, positionOf(all, m))
		}
		out = append(out, &CampaignResponse{
			VideoRef:     cp.VideoRef.String(),
			Title:        cp.Title,
			Visible:      cp.Visible,
			ThumbnailURL: media.ThumbnailURL(cp.VideoRef),
			Members:      members,
		})
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out})
}

// SetupEntryRoutes registers playlist routes on an admin group
func SetupEntryRoutes(adminGroup *gin.RouterGroup, handler *EntryHandler) {
	adminGroup.GET("/entries", handler.ListEntries)
	adminGroup.POST("/entries", handler.CreateEntry)
	adminGroup.PUT("/entries/order", handler.ReorderEntries)
	adminGroup.PUT("/entries/:id", handler.UpdateEntry)
	adminGroup.DELETE("/entries/:id", handler.DeleteEntry)
	adminGroup.GET("/entries/:id/delete-plan", handler.GetDeletePlan)
	adminGroup.POST("/entries/:id/duplicate", handler.DuplicateEntry)
	adminGroup.POST("/entries/:id/visibility", handler.ToggleVisibility)
	adminGroup.POST("/entries/:id/move", handler.MoveEntry)
	adminGroup.GET("/campaigns", handler.ListCampaigns)
}
