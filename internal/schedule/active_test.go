package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
)

func addDays(d media.DateToken, n int) media.DateToken {
	t, err := time.Parse(media.DateLayout, string(d))
	if err != nil {
		panic(err)
	}
	return media.DateToken(t.AddDate(0, 0, n).Format(media.DateLayout))
}

func entry(visible bool, start, end, expires string) models.Entry {
	return models.Entry{
		ID:        uuid.New(),
		VideoRef:  "dQw4w9WgXcQ",
		Visible:   visible,
		StartDate: start,
		EndDate:   end,
		ExpiresAt: expires,
	}
}

func TestStatusOf(t *testing.T) {
	const today = media.DateToken("2024-03-15")

	tests := []struct {
		name  string
		entry models.Entry
		want  Status
	}{
		{"unbounded", entry(true, "", "", ""), StatusActive},
		{"hidden", entry(false, "", "", ""), StatusHidden},
		{"hidden beats dates", entry(false, "2030-01-01", "", ""), StatusHidden},
		{"starts today", entry(true, "2024-03-15", "", ""), StatusActive},
		{"starts tomorrow", entry(true, "2024-03-16", "", ""), StatusScheduled},
		{"ends today", entry(true, "", "2024-03-15", ""), StatusActive},
		{"ended yesterday", entry(true, "", "2024-03-14", ""), StatusExpired},
		{"legacy expiry", entry(true, "", "", "2024-03-14"), StatusExpired},
		{"end date beats legacy expiry", entry(true, "", "2024-03-20", "2024-03-01"), StatusActive},
		{"inside window", entry(true, "2024-03-01", "2024-03-31", ""), StatusActive},
		{"inverted range", entry(true, "2024-03-20", "2024-03-10", ""), StatusScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.entry, today))
		})
	}
}

func TestInvertedRangeNeverActive(t *testing.T) {
	e := entry(true, "2024-03-20", "2024-03-10", "")
	for d := media.DateToken("2024-03-01"); d <= "2024-03-31"; d = addDays(d, 1) {
		assert.False(t, IsActive(e, d), "active on %s", d)
	}
}

func TestComputeActiveSet(t *testing.T) {
	const today = media.DateToken("2024-03-15")
	entries := []models.Entry{
		entry(true, "", "", ""),
		entry(false, "", "", ""),
		entry(true, "2024-03-16", "", ""),
		entry(true, "", "", ""),
		entry(true, "", "2024-03-01", ""),
	}
	original := models.CloneEntries(entries)

	t.Run("keeps order and filters", func(t *testing.T) {
		active := ComputeActiveSet(entries, today)
		assert.Equal(t, []uuid.UUID{entries[0].ID, entries[3].ID}, ids(active))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := ComputeActiveSet(entries, today)
		assert.Equal(t, once, ComputeActiveSet(once, today))
	})

	t.Run("does not modify input", func(t *testing.T) {
		ComputeActiveSet(entries, today)
		assert.Equal(t, original, entries)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ComputeActiveSet(nil, today))
	})

	t.Run("scheduled entry activates on its start date", func(t *testing.T) {
		active := ComputeActiveSet(entries, addDays(today, 1))
		assert.Contains(t, ids(active), entries[2].ID)
	})
}

func TestNextRollover(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"midday", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"exact midnight", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"non utc zone", time.Date(2024, 3, 16, 8, 0, 0, 0, loc), time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRollover(tt.now)), "got %v", NextRollover(tt.now))
		})
	}
}

func ids(entries []models.Entry) []uuid.UUID {
	out := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
