package playlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/store"
)

// Reorderer tracks the last confirmed playlist order and hands out drags.
// Each Drag owns its working copy, so concurrent operators never share
// drag state. Commits are serialised and revert to the confirmed order
// if the write fails.
type Reorderer struct {
	store Store

	mu        sync.Mutex
	version   uint64
	confirmed []models.Entry
	unsub     store.Unsubscribe

	commitMu sync.Mutex
}

// NewReorderer creates a reorderer tracking s.
func NewReorderer(s Store) *Reorderer {
	snap := s.Entries()
	r := &Reorderer{
		store:     s,
		version:   snap.Version,
		confirmed: snap.Entries,
	}
	r.unsub = s.Subscribe(r.onSnapshot)
	return r
}

// Close stops tracking the store.
func (r *Reorderer) Close() {
	r.unsub()
}

func (r *Reorderer) onSnapshot(snap store.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyLocked(snap)
}

func (r *Reorderer) applyLocked(snap store.Snapshot) {
	if snap.Version < r.version {
		return
	}
	r.version = snap.Version
	r.confirmed = snap.Entries
}

// Confirmed returns the last order the store confirmed. It catches up with
// the store first so a subscription lagging behind a commit is not mistaken
// for the current order.
func (r *Reorderer) Confirmed() []models.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyLocked(r.store.Entries())
	return models.CloneEntries(r.confirmed)
}

// Begin picks up the entry at index and starts a drag over a copy of the
// confirmed order.
func (r *Reorderer) Begin(index int) (*Drag, error) {
	working := r.Confirmed()
	if index < 0 || index >= len(working) {
		return nil, ErrIndexOutOfRange
	}
	return &Drag{r: r, working: working, cursor: index}, nil
}

// CommitOrder replaces the order with ids, which must list every entry once.
func (r *Reorderer) CommitOrder(ctx context.Context, ids []uuid.UUID) error {
	confirmed := r.Confirmed()
	next, err := permute(confirmed, ids)
	if err != nil {
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}
	d := &Drag{r: r, working: next}
	return d.Commit(ctx)
}

// MoveBy shifts one entry delta places (the up/down arrows). Moves past
// either end are ignored.
func (r *Reorderer) MoveBy(ctx context.Context, id uuid.UUID, delta int) error {
	from := models.IndexOf(r.Confirmed(), id)
	if from < 0 {
		return fmt.Errorf("failed to move entry: %w", ErrEntryNotFound)
	}
	d, err := r.Begin(from)
	if err != nil {
		return fmt.Errorf("failed to move entry: %w", err)
	}
	to := from + delta
	if delta == 0 || to < 0 || to >= len(d.working) {
		d.Cancel()
		return nil
	}
	if err := d.MoveTo(to); err != nil {
		return fmt.Errorf("failed to move entry: %w", err)
	}
	return d.Commit(ctx)
}

// commit writes working as 0..n-1. working must still be a permutation of
// the confirmed order: a drag that started before an entry was added or
// removed is rejected rather than leaving orders with gaps.
func (r *Reorderer) commit(ctx context.Context, working []models.Entry) error {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	if _, err := permute(r.Confirmed(), idsOf(working)); err != nil {
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}

	orders := make(map[uuid.UUID]int, len(working))
	for i, e := range working {
		orders[e.ID] = i
	}
	if err := r.store.BatchReorder(ctx, orders); err != nil {
		logger.Log.Error().
			Err(err).
			Int("item_count", len(orders)).
			Msg("Failed to reorder playlist, reverted to confirmed order")
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}

	logger.Log.Info().
		Int("item_count", len(orders)).
		Msg("Playlist reordered successfully")
	return nil
}

// Drag is one operator's in-progress reorder.
type Drag struct {
	r *Reorderer

	mu      sync.Mutex
	working []models.Entry
	cursor  int
	done    bool
}

// MoveTo reinserts the picked-up entry at index. Indexes past either end clamp.
func (d *Drag) MoveTo(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return ErrNoDrag
	}
	if index < 0 {
		index = 0
	}
	if index >= len(d.working) {
		index = len(d.working) - 1
	}
	if index == d.cursor {
		return nil
	}
	moved := d.working[d.cursor]
	rest := append(d.working[:d.cursor:d.cursor], d.working[d.cursor+1:]...)
	next := make([]models.Entry, 0, len(d.working))
	next = append(next, rest[:index]...)
	next = append(next, moved)
	next = append(next, rest[index:]...)
	d.working = next
	d.cursor = index
	return nil
}

// Working returns the order currently shown to the operator.
func (d *Drag) Working() []models.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.CloneEntries(d.working)
}

// Cancel drops the drag and shows the confirmed order again.
func (d *Drag) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done = true
	d.working = d.r.Confirmed()
}

// Commit writes the working order. On failure the working copy reverts to
// the last confirmed order. A drag commits at most once.
func (d *Drag) Commit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return ErrNoDrag
	}
	d.done = true

	if err := d.r.commit(ctx, d.working); err != nil {
		d.working = d.r.Confirmed()
		return err
	}
	return nil
}

// permute orders entries by ids, which must list every entry exactly once.
func permute(entries []models.Entry, ids []uuid.UUID) ([]models.Entry, error) {
	if len(ids) != len(entries) {
		return nil, ErrInvalidOrder
	}
	next := make([]models.Entry, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		i := models.IndexOf(entries, id)
		if i < 0 || seen[id] {
			return nil, ErrInvalidOrder
		}
		seen[id] = true
		next = append(next, entries[i])
	}
	return next, nil
}
