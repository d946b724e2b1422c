// Package playlist implements the operator-side playlist operations: campaign
// aware editing, duplication, deletion and reordering.
package playlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/notify"
	"github.com/stwalsh4118/streamhub/internal/store"
)

// Store is the part of the store adapter the controller needs.
type Store interface {
	Entries() store.Snapshot
	Subscribe(onChange func(store.Snapshot)) store.Unsubscribe
	Create(ctx context.Context, in store.NewEntry) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch store.EntryPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	BatchUpdate(ctx context.Context, ids []uuid.UUID, patch store.EntryPatch) error
	BatchDelete(ctx context.Context, ids []uuid.UUID) error
	BatchReorder(ctx context.Context, orders map[uuid.UUID]int) error
}

// ScheduleMode chooses how the start date of a submission is set.
type ScheduleMode string

// Schedule modes
const (
	ModeNow      ScheduleMode = "now"      // start today
	ModeSchedule ScheduleMode = "schedule" // start on the given date, today if empty
)

// DeleteScope chooses between one instance and the whole campaign.
type DeleteScope string

// Delete scopes
const (
	ScopeInstance DeleteScope = notify.ScopeInstance
	ScopeCampaign DeleteScope = notify.ScopeCampaign
)

// EntryInput is an operator submission for create or edit.
type EntryInput struct {
	URL       string
	Title     string
	Mode      ScheduleMode
	StartDate string
	EndDate   string
}

// Campaign groups every entry sharing a video reference.
type Campaign struct {
	VideoRef media.VideoRef `json:"video_ref"`
	Title    string         `json:"title"`
	Visible  bool           `json:"visible"`
	Members  []models.Entry `json:"members"`
}

// DeletePlan describes what a delete would touch before the operator picks a scope.
type DeletePlan struct {
	Entry        models.Entry        `json:"entry"`
	CampaignSize int                 `json:"campaign_size"`
	Confirmation notify.Confirmation `json:"confirmation"`
}

// Service handles business logic for playlist operations
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new playlist service instance
func NewService(s Store) *Service {
	return &Service{store: s, now: time.Now}
}

// WithClock overrides the time source used for "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() media.DateToken {
	return media.Today(s.now())
}

// Create adds a new entry from an operator submission. A video that is
// already scheduled is rejected with ErrDuplicateVideo.
func (s *Service) Create(ctx context.Context, in EntryInput) (*models.Entry, error) {
	ref, err := media.ParseVideoRef(in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	snap := s.store.Entries()
	if members := campaignOf(snap.Entries, ref); len(members) > 0 {
		logger.Log.Warn().
			Str("video_ref", ref.String()).
			Int("campaign_size", len(members)).
			Msg("Create rejected: video already scheduled")
		return nil, fmt.Errorf("failed to create entry: %w", ErrDuplicateVideo)
	}

	start, end, err := s.resolveDates(in)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := s.store.Create(ctx, store.NewEntry{
		VideoRef:  ref,
		Title:     titleOrDefault(in.Title),
		Visible:   true,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return s.find(id)
}

// Edit applies a submission to an entry. When the video is unchanged the
// title and dates fan out to the whole campaign; a changed video detaches
// only the edited entry. It returns the number of entries updated.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, in EntryInput) (int, error) {
	entry, err := s.find(id)
	if err != nil {
		return 0, fmt.Errorf("failed to edit entry: %w", err)
	}

	ref := entry.Ref()
	if strings.TrimSpace(in.URL) != "" {
		if ref, err = media.ParseVideoRef(in.URL); err != nil {
			return 0, fmt.Errorf("failed to edit entry: %w", err)
		}
	}

	start, end, err := s.resolveDates(in)
	if err != nil {
		return 0, fmt.Errorf("failed to edit entry: %w", err)
	}

	title := titleOrDefault(in.Title)
	// The submitted end date replaces any legacy expiry.
	cleared := ""
	patch := store.EntryPatch{Title: &title, StartDate: &start, EndDate: &end, ExpiresAt: &cleared}

	if ref != entry.Ref() {
		patch.VideoRef = &ref
		if err := s.store.Update(ctx, id, patch); err != nil {
			return 0, fmt.Errorf("failed to edit entry: %w", err)
		}
		logger.Log.Info().
			Str("entry_id", id.String()).
			Str("old_video_ref", entry.VideoRef).
			Str("video_ref", ref.String()).
			Msg("Entry detached to a new video")
		return 1, nil
	}

	ids := idsOf(campaignOf(s.store.Entries().Entries, ref))
	if err := s.store.BatchUpdate(ctx, ids, patch); err != nil {
		return 0, fmt.Errorf("failed to edit campaign: %w", err)
	}

	logger.Log.Info().
		Str("entry_id", id.String()).
		Str("video_ref", ref.String()).
		Int("campaign_size", len(ids)).
		Msg("Campaign edited")
	return len(ids), nil
}

// ToggleVisibility flips visibility for the entry's whole campaign in one batch.
// It returns the new visibility and the number of entries changed.
func (s *Service) ToggleVisibility(ctx context.Context, id uuid.UUID) (bool, int, error) {
	entry, err := s.find(id)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle visibility: %w", err)
	}

	visible := !entry.Visible
	ids := idsOf(campaignOf(s.store.Entries().Entries, entry.Ref()))
	if err := s.store.BatchUpdate(ctx, ids, store.EntryPatch{Visible: &visible}); err != nil {
		return entry.Visible, 0, fmt.Errorf("failed to toggle visibility: %w", err)
	}

	logger.Log.Info().
		Str("video_ref", entry.VideoRef).
		Bool("visible", visible).
		Int("campaign_size", len(ids)).
		Msg("Campaign visibility toggled")
	return visible, len(ids), nil
}

// PlanDelete surfaces the campaign size so the operator can choose a scope.
func (s *Service) PlanDelete(id uuid.UUID) (*DeletePlan, error) {
	entry, err := s.find(id)
	if err != nil {
		return nil, fmt.Errorf("failed to plan delete: %w", err)
	}
	size := len(campaignOf(s.store.Entries().Entries, entry.Ref()))
	return &DeletePlan{
		Entry:        *entry,
		CampaignSize: size,
		Confirmation: notify.DeleteConfirmation(entry.Title, size),
	}, nil
}

// Delete removes the entry alone or its whole campaign. It returns the
// number of entries removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, scope DeleteScope) (int, error) {
	entry, err := s.find(id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entry: %w", err)
	}

	switch scope {
	case ScopeInstance, "":
		if err := s.store.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to delete entry: %w", err)
		}
		logger.Log.Info().Str("entry_id", id.String()).Msg("Entry deleted")
		return 1, nil
	case ScopeCampaign:
		ids := idsOf(campaignOf(s.store.Entries().Entries, entry.Ref()))
		if err := s.store.BatchDelete(ctx, ids); err != nil {
			return 0, fmt.Errorf("failed to delete campaign: %w", err)
		}
		logger.Log.Info().
			Str("video_ref", entry.VideoRef).
			Int("campaign_size", len(ids)).
			Msg("Campaign deleted")
		return len(ids), nil
	default:
		return 0, fmt.Errorf("failed to delete entry: %w", ErrInvalidScope)
	}
}

// Duplicate clones an entry at the end of the playlist, adding a campaign member.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	src, err := s.find(id)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate entry: %w", err)
	}

	newID, err := s.store.Create(ctx, store.NewEntry{
		VideoRef:  src.Ref(),
		Title:     src.Title,
		Visible:   src.Visible,
		StartDate: src.StartDate,
		EndDate:   string(src.EffectiveEndDate()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate entry: %w", err)
	}

	logger.Log.Info().
		Str("source_id", id.String()).
		Str("entry_id", newID.String()).
		Str("video_ref", src.VideoRef).
		Msg("Entry duplicated")
	return s.find(newID)
}

// Campaigns groups the playlist by video reference in first-appearance order.
func (s *Service) Campaigns() []Campaign {
	entries := s.store.Entries().Entries
	index := make(map[string]int)
	var out []Campaign
	for _, e := range entries {
		i, ok := index[e.VideoRef]
		if !ok {
			i = len(out)
			index[e.VideoRef] = i
			out = append(out, Campaign{VideoRef: e.Ref(), Title: e.Title})
		}
		out[i].Members = append(out[i].Members, e)
		out[i].Visible = out[i].Visible || e.Visible
	}
	return out
}

// resolveDates applies the schedule mode to a submission.
func (s *Service) resolveDates(in EntryInput) (string, string, error) {
	if !media.ValidDate(in.StartDate) || !media.ValidDate(in.EndDate) {
		return "", "", ErrInvalidDate
	}

	today := string(s.today())
	switch in.Mode {
	case ModeNow, "":
		return today, in.EndDate, nil
	case ModeSchedule:
		if in.StartDate == "" {
			return today, in.EndDate, nil
		}
		return in.StartDate, in.EndDate, nil
	default:
		return "", "", ErrInvalidScheduleMode
	}
}

func (s *Service) find(id uuid.UUID) (*models.Entry, error) {
	entries := s.store.Entries().Entries
	if i := models.IndexOf(entries, id); i >= 0 {
		e := entries[i]
		return &e, nil
	}
	return nil, ErrEntryNotFound
}

func titleOrDefault(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.DefaultEntryTitle
	}
	return title
}

func campaignOf(entries []models.Entry, ref media.VideoRef) []models.Entry {
	var members []models.Entry
	for _, e := range entries {
		if e.Ref() == ref {
			members = append(members, e)
		}
	}
	return members
}

func idsOf(entries []models.Entry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
