// Package schedule decides which playlist entries are on air for a given date.
package schedule

import (
	"time"

	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
)

// Status is the scheduling badge shown next to an entry.
type Status string

// Entry statuses
const (
	StatusActive    Status = "active"
	StatusScheduled Status = "scheduled"
	StatusExpired   Status = "expired"
	StatusHidden    Status = "hidden"
)

// IsActive reports whether entry plays on asOf. Date bounds are inclusive and
// an empty bound is open. An inverted range is never active.
func IsActive(entry models.Entry, asOf media.DateToken) bool {
	return StatusOf(entry, asOf) == StatusActive
}

// StatusOf classifies entry on asOf. Hidden wins over any date window.
func StatusOf(entry models.Entry, asOf media.DateToken) Status {
	if !entry.Visible {
		return StatusHidden
	}
	if entry.StartDate != "" && media.DateToken(entry.StartDate) > asOf {
		return StatusScheduled
	}
	if end := entry.EffectiveEndDate(); end != "" && end < asOf {
		return StatusExpired
	}
	return StatusActive
}

// ComputeActiveSet returns the entries active on asOf, preserving their order.
// It never modifies entries.
func ComputeActiveSet(entries []models.Entry, asOf media.DateToken) []models.Entry {
	active := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if IsActive(e, asOf) {
			active = append(active, e)
		}
	}
	return active
}

// NextRollover returns the next UTC midnight strictly after now.
func NextRollover(now time.Time) time.Time {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, 1)
}
