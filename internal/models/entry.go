package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/media"
)

// DefaultEntryTitle replaces an empty title on create.
const DefaultEntryTitle = "YouTube video"

// Entry is one scheduled playlist slot referencing a single external video.
type Entry struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	VideoRef  string    `json:"video_ref" gorm:"type:text;not null;index;column:video_ref"`
	Title     string    `json:"title" gorm:"type:text;not null;column:title"`
	Visible   bool      `json:"visible" gorm:"type:integer;not null;column:visible"`
	StartDate string    `json:"start_date,omitempty" gorm:"type:text;not null;default:'';column:start_date"`
	EndDate   string    `json:"end_date,omitempty" gorm:"type:text;not null;default:'';column:end_date"`
	ExpiresAt string    `json:"expires_at,omitempty" gorm:"type:text;not null;default:'';column:expires_at"` // legacy end date
	Order     int       `json:"order" gorm:"type:integer;not null;column:position"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	Seq       int64     `json:"-" gorm:"type:integer;not null;column:seq"` // arrival order for ties
}

// TableName pins the table created by the migrations.
func (Entry) TableName() string { return "playlist_entries" }

// Ref returns the entry's video reference.
func (e Entry) Ref() media.VideoRef { return media.VideoRef(e.VideoRef) }

// EffectiveEndDate is EndDate, falling back to the legacy ExpiresAt.
func (e Entry) EffectiveEndDate() media.DateToken {
	if e.EndDate != "" {
		return media.DateToken(e.EndDate)
	}
	return media.DateToken(e.ExpiresAt)
}

// NewEntry creates an Entry with a generated UUID and creation timestamp.
func NewEntry(ref media.VideoRef, title string, order int) *Entry {
	if title == "" {
		title = DefaultEntryTitle
	}
	return &Entry{
		ID:        uuid.New(),
		VideoRef:  ref.String(),
		Title:     title,
		Visible:   true,
		Order:     order,
		CreatedAt: time.Now().UTC(),
	}
}

// CloneEntries returns a shallow copy of the slice so callers can reorder freely.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// IndexOf returns the position of the entry with id, or -1.
func IndexOf(entries []Entry, id uuid.UUID) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
