package playlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/schedule"
	"github.com/stwalsh4118/streamhub/internal/store"
)

var testToday = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// setupPlaylistTest creates a service over an in-memory store
func setupPlaylistTest(t *testing.T) (*Service, *store.Adapter) {
	t.Helper()

	database, err := db.New(":memory:")
	require.NoError(t, err, "Failed to create in-memory database")
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB), "Failed to run migrations")

	adapter, err := store.NewAdapter(context.Background(), db.NewRepositories(database))
	require.NoError(t, err)
	t.Cleanup(func() {
		adapter.Close()
		_ = database.Close()
	})

	svc := NewService(adapter).WithClock(func() time.Time { return testToday })
	return svc, adapter
}

// createCampaign creates an entry and duplicates it until the campaign has size members.
func createCampaign(t *testing.T, svc *Service, url string, size int) []models.Entry {
	t.Helper()
	ctx := context.Background()

	first, err := svc.Create(ctx, EntryInput{URL: url, Title: "Promo"})
	require.NoError(t, err)
	members := []models.Entry{*first}
	for i := 1; i < size; i++ {
		dup, err := svc.Duplicate(ctx, first.ID)
		require.NoError(t, err)
		members = append(members, *dup)
	}
	return members
}

func entryByID(t *testing.T, adapter *store.Adapter, id uuid.UUID) models.Entry {
	t.Helper()
	entries := adapter.Entries().Entries
	i := models.IndexOf(entries, id)
	require.GreaterOrEqual(t, i, 0, "entry %s not found", id)
	return entries[i]
}

func TestCreate_Success(t *testing.T) {
	svc, _ := setupPlaylistTest(t)

	entry, err := svc.Create(context.Background(), EntryInput{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", entry.VideoRef)
	assert.Equal(t, models.DefaultEntryTitle, entry.Title)
	assert.True(t, entry.Visible)
	assert.Equal(t, "2024-03-15", entry.StartDate, "now mode starts today")
	assert.Equal(t, 0, entry.Order)
}

func TestCreate_InvalidURL(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)

	_, err := svc.Create(context.Background(), EntryInput{URL: "https://example.com/video"})
	require.Error(t, err)
	assert.True(t, media.IsInvalidVideoURL(err))
	assert.Empty(t, adapter.Entries().Entries)
}

func TestCreate_DuplicateGuard(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, EntryInput{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, EntryInput{URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"})
	require.Error(t, err)
	assert.True(t, IsDuplicateVideo(err))
	assert.Len(t, adapter.Entries().Entries, 1)
}

func TestCreate_ScheduleModes(t *testing.T) {
	tests := []struct {
		name      string
		in        EntryInput
		wantStart string
		wantErr   error
	}{
		{"now ignores start date", EntryInput{Mode: ModeNow, StartDate: "2024-04-01"}, "2024-03-15", nil},
		{"schedule uses start date", EntryInput{Mode: ModeSchedule, StartDate: "2024-04-01"}, "2024-04-01", nil},
		{"schedule defaults to today", EntryInput{Mode: ModeSchedule}, "2024-03-15", nil},
		{"unknown mode", EntryInput{Mode: "later"}, "", ErrInvalidScheduleMode},
		{"bad date", EntryInput{Mode: ModeSchedule, StartDate: "April 1"}, "", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupPlaylistTest(t)
			tt.in.URL = "https://youtu.be/dQw4w9WgXcQ"
			tt.in.EndDate = "2024-05-01"

			entry, err := svc.Create(context.Background(), tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, entry.StartDate)
			assert.Equal(t, "2024-05-01", entry.EndDate)
		})
	}
}

func TestDuplicate_AppendsCampaignMember(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()

	src, err := svc.Create(ctx, EntryInput{URL: "https://youtu.be/dQw4w9WgXcQ", Title: "Promo", Mode: ModeSchedule, StartDate: "2024-04-01", EndDate: "2024-04-30"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, EntryInput{URL: "https://youtu.be/9bZkp7q19f0"})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, src.VideoRef, dup.VideoRef)
	assert.Equal(t, src.Title, dup.Title)
	assert.Equal(t, src.Visible, dup.Visible)
	assert.Equal(t, src.StartDate, dup.StartDate)
	assert.Equal(t, src.EndDate, dup.EndDate)
	assert.Equal(t, 2, dup.Order)

	entries := adapter.Entries().Entries
	assert.Equal(t, dup.ID, entries[len(entries)-1].ID)
	assert.Len(t, svc.Campaigns(), 2)
}

func TestToggleVisibility_FansOutToCampaign(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()

	members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 3)
	other, err := svc.Create(ctx, EntryInput{URL: "https://youtu.be/9bZkp7q19f0"})
	require.NoError(t, err)

	visible, n, err := svc.ToggleVisibility(ctx, members[1].ID)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Equal(t, 3, n)

	for _, m := range members {
		assert.False(t, entryByID(t, adapter, m.ID).Visible)
	}
	assert.True(t, entryByID(t, adapter, other.ID).Visible)

	visible, _, err = svc.ToggleVisibility(ctx, members[2].ID)
	require.NoError(t, err)
	assert.True(t, visible)
	for _, m := range members {
		assert.True(t, entryByID(t, adapter, m.ID).Visible)
	}
}

func TestEdit_SameVideoFansOut(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()
	members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 3)

	n, err := svc.Edit(ctx, members[0].ID, EntryInput{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Title:   "Spring promo",
		Mode:    ModeSchedule,
		EndDate: "2024-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, m := range members {
		e := entryByID(t, adapter, m.ID)
		assert.Equal(t, "Spring promo", e.Title)
		assert.Equal(t, "2024-06-30", e.EndDate)
	}
}

func TestEdit_ChangedVideoDetachesOneEntry(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()
	members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 3)

	n, err := svc.Edit(ctx, members[1].ID, EntryInput{URL: "https://youtu.be/9bZkp7q19f0", Title: "Other"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edited := entryByID(t, adapter, members[1].ID)
	assert.Equal(t, "9bZkp7q19f0", edited.VideoRef)
	assert.Equal(t, "Other", edited.Title)
	for _, id := range []uuid.UUID{members[0].ID, members[2].ID} {
		e := entryByID(t, adapter, id)
		assert.Equal(t, "dQw4w9WgXcQ", e.VideoRef)
		assert.Equal(t, "Promo", e.Title)
	}
}

func TestEdit_ClearsLegacyExpiry(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ctx := context.Background()
	members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 1)

	expired := "2024-01-01"
	require.NoError(t, adapter.Update(ctx, members[0].ID, store.EntryPatch{ExpiresAt: &expired}))
	require.False(t, schedule.IsActive(entryByID(t, adapter, members[0].ID), media.Today(testToday)))

	_, err := svc.Edit(ctx, members[0].ID, EntryInput{URL: "https://youtu.be/dQw4w9WgXcQ", Title: "Promo"})
	require.NoError(t, err)

	e := entryByID(t, adapter, members[0].ID)
	assert.Empty(t, e.EndDate)
	assert.Empty(t, e.ExpiresAt, "an edit must drop the legacy expiry")
	assert.True(t, schedule.IsActive(e, media.Today(testToday)))
}

func TestEdit_NotFound(t *testing.T) {
	svc, _ := setupPlaylistTest(t)
	_, err := svc.Edit(context.Background(), uuid.New(), EntryInput{Title: "x"})
	assert.True(t, IsEntryNotFound(err))
}

func TestDelete_Scopes(t *testing.T) {
	t.Run("instance leaves the rest of the campaign", func(t *testing.T) {
		svc, adapter := setupPlaylistTest(t)
		members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 3)

		plan, err := svc.PlanDelete(members[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 3, plan.CampaignSize)
		assert.Len(t, plan.Confirmation.Options, 2)

		n, err := svc.Delete(context.Background(), members[0].ID, ScopeInstance)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		entries := adapter.Entries().Entries
		require.Len(t, entries, 2)
		assert.Equal(t, members[1].ID, entries[0].ID)
		assert.Equal(t, members[2].ID, entries[1].ID)
	})

	t.Run("campaign removes every member", func(t *testing.T) {
		svc, adapter := setupPlaylistTest(t)
		members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 3)
		keep, err := svc.Create(context.Background(), EntryInput{URL: "https://youtu.be/9bZkp7q19f0"})
		require.NoError(t, err)

		n, err := svc.Delete(context.Background(), members[2].ID, ScopeCampaign)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		entries := adapter.Entries().Entries
		require.Len(t, entries, 1)
		assert.Equal(t, keep.ID, entries[0].ID)
	})

	t.Run("unknown scope", func(t *testing.T) {
		svc, _ := setupPlaylistTest(t)
		members := createCampaign(t, svc, "https://youtu.be/dQw4w9WgXcQ", 1)
		_, err := svc.Delete(context.Background(), members[0].ID, "everything")
		assert.ErrorIs(t, err, ErrInvalidScope)
	})
}

// failingStore fails every reorder.
type failingStore struct {
	Store
}

var errReorderFailed = errors.New("store unavailable")

func (failingStore) BatchReorder(context.Context, map[uuid.UUID]int) error {
	return errReorderFailed
}
