package api

import (
	"time"

	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/playlist"
	"github.com/stwalsh4118/streamhub/internal/schedule"
)

// Request DTOs

// EntryRequest represents a create or edit submission
type EntryRequest struct {
	URL       string `json:"url" binding:"required"`
	Title     string `json:"title"`
	Mode      string `json:"mode"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r EntryRequest) input() playlist.EntryInput {
	mode := playlist.ScheduleMode(r.Mode)
	if mode == "" {
		mode = playlist.ModeNow
	}
	return playlist.EntryInput{URL: r.URL, Title: r.Title, Mode: mode, StartDate: r.StartDate, EndDate: r.EndDate}
}

// OrderRequest submits a full playlist order
type OrderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// MoveRequest moves one entry up (negative) or down (positive)
type MoveRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// LoginRequest carries the admin password
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionRequest carries an optional custom token
type SessionRequest struct {
	Token string `json:"token"`
}

// PasswordRequest sets a new admin password
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// Response DTOs

// EntryResponse represents an entry in API responses
type EntryResponse struct {
	ID           string          `json:"id"`
	VideoRef     string          `json:"video_ref"`
	Title        string          `json:"title"`
	Visible      bool            `json:"visible"`
	StartDate    string          `json:"start_date,omitempty"`
	EndDate      string          `json:"end_date,omitempty"`
	Order        int             `json:"order"`
	Position     int             `json:"position"`
	Status       schedule.Status `json:"status"`
	ThumbnailURL string          `json:"thumbnail_url"`
	WatchURL     string          `json:"watch_url"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EntryListResponse represents the full playlist
type EntryListResponse struct {
	Version uint64           `json:"version"`
	Today   string           `json:"today"`
	Entries []*EntryResponse `json:"entries"`
}

// EntryMutationResponse returns a created or duplicated entry
type EntryMutationResponse struct {
	Entry  *EntryResponse `json:"entry"`
	Notice *notify.Toast  `json:"notice,omitempty"`
}

// AffectedResponse reports how many entries a write touched
type AffectedResponse struct {
	Affected int           `json:"affected"`
	Visible  *bool         `json:"visible,omitempty"`
	Notice   *notify.Toast `json:"notice,omitempty"`
}

// CampaignResponse represents a campaign
type CampaignResponse struct {
	VideoRef     string           `json:"video_ref"`
	Title        string           `json:"title"`
	Visible      bool             `json:"visible"`
	ThumbnailURL string           `json:"thumbnail_url"`
	Members      []*EntryResponse `json:"members"`
}

// DeletePlanResponse describes a pending delete
type DeletePlanResponse struct {
	Entry        *EntryResponse      `json:"entry"`
	CampaignSize int                 `json:"campaign_size"`
	Confirmation notify.Confirmation `json:"confirmation"`
}

// NoticeResponse carries only a toast
type NoticeResponse struct {
	Notice *notify.Toast `json:"notice,omitempty"`
}

// toEntryResponse converts an entry to API response format. position is 1-based.
func toEntryResponse(e models.Entry, asOf media.DateToken, position int) *EntryResponse {
	ref := e.Ref()
	return &EntryResponse{
		ID:           e.ID.String(),
		VideoRef:     e.VideoRef,
		Title:        e.Title,
		Visible:      e.Visible,
		StartDate:    e.StartDate,
		EndDate:      string(e.EffectiveEndDate()),
		Order:        e.Order,
		Position:     position,
		Status:       schedule.StatusOf(e, asOf),
		ThumbnailURL: media.ThumbnailURL(ref),
		WatchURL:     media.WatchURL(ref),
		CreatedAt:    e.CreatedAt,
	}
}

func toEntryResponses(entries []models.Entry, asOf media.DateToken) []*EntryResponse {
	out := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toEntryResponse(e, asOf, i+1)
	}
	return out
}

// positionOf returns the 1-based position of e in entries, 0 if absent.
func positionOf(entries []models.Entry, e models.Entry) int {
	return models.IndexOf(entries, e.ID) + 1
}
