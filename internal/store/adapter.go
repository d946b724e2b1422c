// Package store is the single source of playlist state. It wraps the
// database repositories and broadcasts an ordered snapshot to every
// subscriber after each committed change.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/media"
	"github.com/stwalsh4118/streamhub/internal/models"
)

// Snapshot is the ordered playlist as of one committed change.
// Versions increase strictly with every broadcast.
type Snapshot struct {
	Version uint64
	Entries []models.Entry
}

// Unsubscribe stops delivery to a subscriber. Calling it more than once is safe.
type Unsubscribe func()

// reloadTimeout bounds the post-commit reload, which ignores the caller's cancellation.
const reloadTimeout = 5 * time.Second

// ChangeKind names what a local commit touched.
type ChangeKind string

// Change kinds published after local commits
const (
	ChangeEntries  ChangeKind = "entries"
	ChangeSettings ChangeKind = "settings"
)

// NewEntry is the caller-supplied part of an entry. ID, Order and CreatedAt
// are assigned by the store.
type NewEntry struct {
	VideoRef  media.VideoRef
	Title     string
	Visible   bool
	StartDate string
	EndDate   string
}

// EntryPatch lists the fields to change. Nil fields are left alone.
type EntryPatch struct {
	VideoRef  *media.VideoRef
	Title     *string
	Visible   *bool
	StartDate *string
	EndDate   *string
	ExpiresAt *string
	Order     *int
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.VideoRef == nil && p.Title == nil && p.Visible == nil &&
		p.StartDate == nil && p.EndDate == nil && p.ExpiresAt == nil && p.Order == nil
}

// SettingsPatch lists settings fields to change. An empty PasswordHash clears the override.
type SettingsPatch struct {
	PasswordHash *string
}

// Adapter serialises writes and snapshot broadcasts over the repositories.
type Adapter struct {
	repos *db.Repositories
	log   zerolog.Logger

	mu       sync.Mutex
	version  uint64
	entries  []models.Entry
	settings models.Settings
	nextSub  int
	subs     map[int]*mailbox[Snapshot]
	setSubs  map[int]*mailbox[models.Settings]
	onCommit func(ChangeKind)
}

// NewAdapter loads the current playlist and settings.
func NewAdapter(ctx context.Context, repos *db.Repositories) (*Adapter, error) {
	a := &Adapter{
		repos:   repos,
		log:     logger.For("store"),
		subs:    make(map[int]*mailbox[Snapshot]),
		setSubs: make(map[int]*mailbox[models.Settings]),
	}

	entries, err := repos.Entries.List(ctx)
	if err != nil {
		return nil, wrap("load", err)
	}
	settings, err := repos.Settings.Get(ctx)
	if err != nil {
		return nil, wrap("load", err)
	}

	a.entries = entries
	a.settings = *settings
	a.version = 1
	return a, nil
}

// OnCommit registers fn to run after every successful local write.
// Refresh does not trigger it.
func (a *Adapter) OnCommit(fn func(ChangeKind)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCommit = fn
}

// Subscribe delivers the current snapshot immediately and then one snapshot
// per committed change, in order, on a goroutine owned by the subscription.
func (a *Adapter) Subscribe(onChange func(Snapshot)) Unsubscribe {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	box := newMailbox(onChange)
	a.subs[id] = box
	box.push(a.snapshotLocked())

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
			box.close()
		})
	}
}

// SubscribeSettings delivers the current settings immediately and after every change.
func (a *Adapter) SubscribeSettings(onChange func(models.Settings)) Unsubscribe {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	box := newMailbox(onChange)
	a.setSubs[id] = box
	box.push(a.settings)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.setSubs, id)
			a.mu.Unlock()
			box.close()
		})
	}
}

// Entries returns the current ordered snapshot.
func (a *Adapter) Entries() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Settings returns the current settings.
func (a *Adapter) Settings() models.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Create stores a new entry at the end of the playlist and returns its ID.
func (a *Adapter) Create(ctx context.Context, in NewEntry) (uuid.UUID, error) {
	if err := validateNew(in); err != nil {
		return uuid.Nil, wrap("create", err)
	}

	entry := models.NewEntry(in.VideoRef, strings.TrimSpace(in.Title), 0)
	entry.Visible = in.Visible
	entry.StartDate = in.StartDate
	entry.EndDate = in.EndDate

	err := a.write(ctx, "create", ChangeEntries, func() error {
		return a.repos.Entries.Create(ctx, entry, true)
	})
	if err != nil {
		return uuid.Nil, err
	}

	a.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("video_ref", entry.VideoRef).
		Int("order", entry.Order).
		Msg("Entry created")
	return entry.ID, nil
}

// Update applies patch to one entry.
func (a *Adapter) Update(ctx context.Context, id uuid.UUID, patch EntryPatch) error {
	updates, err := patch.updates()
	if err != nil {
		return wrap("update", err)
	}
	return a.write(ctx, "update", ChangeEntries, func() error {
		return a.repos.Entries.Update(ctx, id, updates)
	})
}

// Delete removes one entry.
func (a *Adapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.write(ctx, "delete", ChangeEntries, func() error {
		return a.repos.Entries.Delete(ctx, id)
	})
}

// BatchUpdate applies the same patch to every id atomically.
func (a *Adapter) BatchUpdate(ctx context.Context, ids []uuid.UUID, patch EntryPatch) error {
	updates, err := patch.updates()
	if err != nil {
		return wrap("batch_update", err)
	}
	return a.write(ctx, "batch_update", ChangeEntries, func() error {
		return a.repos.Entries.BatchUpdate(ctx, ids, updates)
	})
}

// BatchDelete removes every id atomically.
func (a *Adapter) BatchDelete(ctx context.Context, ids []uuid.UUID) error {
	return a.write(ctx, "batch_delete", ChangeEntries, func() error {
		return a.repos.Entries.BatchDelete(ctx, ids)
	})
}

// BatchReorder assigns every listed entry its new order atomically.
func (a *Adapter) BatchReorder(ctx context.Context, orders map[uuid.UUID]int) error {
	return a.write(ctx, "batch_reorder", ChangeEntries, func() error {
		return a.repos.Entries.Reorder(ctx, orders)
	})
}

// UpdateSettings applies patch to the singleton settings row.
func (a *Adapter) UpdateSettings(ctx context.Context, patch SettingsPatch) error {
	if patch.PasswordHash == nil {
		return nil
	}

	a.mu.Lock()
	settings, err := a.repos.Settings.SetPasswordHash(ctx, *patch.PasswordHash)
	if err != nil {
		a.mu.Unlock()
		return wrap("update_settings", err)
	}
	a.settings = *settings
	for _, box := range a.setSubs {
		box.push(a.settings)
	}
	hook := a.onCommit
	a.mu.Unlock()

	a.log.Info().Bool("password_override", settings.HasPasswordOverride()).Msg("Settings updated")
	if hook != nil {
		hook(ChangeSettings)
	}
	return nil
}

// Refresh reloads entries and settings from the database and broadcasts them.
// Used when another instance reports a change.
func (a *Adapter) Refresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.reloadLocked(ctx); err != nil {
		return wrap("refresh", err)
	}
	settings, err := a.repos.Settings.Get(ctx)
	if err != nil {
		return wrap("refresh", err)
	}
	if *settings != a.settings {
		a.settings = *settings
		for _, box := range a.setSubs {
			box.push(a.settings)
		}
	}
	return nil
}

// Close stops every subscription.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, box := range a.subs {
		box.close()
		delete(a.subs, id)
	}
	for id, box := range a.setSubs {
		box.close()
		delete(a.setSubs, id)
	}
}

// write runs fn, then reloads and broadcasts, all under the adapter lock.
func (a *Adapter) write(ctx context.Context, op string, kind ChangeKind, fn func() error) error {
	start := time.Now()

	a.mu.Lock()
	if err := fn(); err != nil {
		a.mu.Unlock()
		a.log.Warn().Err(err).Str("op", op).Msg("Store write failed")
		return wrap(op, err)
	}
	// The write is durable now. A caller that gave up must not keep
	// subscribers or other instances from seeing it.
	reloadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
	reloadErr := a.reloadLocked(reloadCtx)
	cancel()
	version := a.version
	hook := a.onCommit
	a.mu.Unlock()

	if hook != nil {
		defer hook(kind)
	}
	if reloadErr != nil {
		a.log.Error().Err(reloadErr).Str("op", op).Msg("Store write committed but reload failed")
		return wrap(op, reloadErr)
	}

	a.log.Debug().
		Str("op", op).
		Uint64("version", version).
		Dur("duration", time.Since(start)).
		Msg("Store write committed")
	return nil
}

func (a *Adapter) reloadLocked(ctx context.Context) error {
	entries, err := a.repos.Entries.List(ctx)
	if err != nil {
		return err
	}
	a.entries = entries
	a.version++
	for _, box := range a.subs {
		box.push(a.snapshotLocked())
	}
	return nil
}

func (a *Adapter) snapshotLocked() Snapshot {
	return Snapshot{Version: a.version, Entries: models.CloneEntries(a.entries)}
}

func validateNew(in NewEntry) error {
	if len(in.VideoRef) != media.VideoRefLength {
		return media.ErrInvalidVideoURL
	}
	if !media.ValidDate(in.StartDate) || !media.ValidDate(in.EndDate) {
		return db.ErrInvalidInput
	}
	return nil
}

func (p EntryPatch) updates() (db.EntryUpdates, error) {
	updates := db.EntryUpdates{}
	if p.VideoRef != nil {
		if len(*p.VideoRef) != media.VideoRefLength {
			return nil, media.ErrInvalidVideoURL
		}
		updates["video_ref"] = p.VideoRef.String()
	}
	if p.Title != nil {
		updates["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Visible != nil {
		updates["visible"] = *p.Visible
	}
	for col, v := range map[string]*string{"start_date": p.StartDate, "end_date": p.EndDate, "expires_at": p.ExpiresAt} {
		if v == nil {
			continue
		}
		if !media.ValidDate(*v) {
			return nil, db.ErrInvalidInput
		}
		updates[col] = *v
	}
	if p.Order != nil {
		if *p.Order < 0 {
			return nil, db.ErrInvalidInput
		}
		updates["position"] = *p.Order
	}
	return updates, nil
}
