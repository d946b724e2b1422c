package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/models"
	"gorm.io/gorm"
)

// EntryRepository handles database operations for playlist entries
type EntryRepository struct {
	db *DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// EntryUpdates is a column -> value map applied with Updates so zero values are written.
type EntryUpdates map[string]interface{}

// Create inserts entry, appending it after the current last arrival.
// When appendOrder is true, Order is set to the current entry count.
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry, appendOrder bool) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var stats struct {
			Count  int64
			MaxSeq int64
		}
		if err := tx.Model(&models.Entry{}).
			Select("COUNT(*) AS count, COALESCE(MAX(seq), 0) AS max_seq").
			Scan(&stats).Error; err != nil {
			return fmt.Errorf("failed to read playlist size: %w", MapGormError(err))
		}

		if appendOrder {
			entry.Order = int(stats.Count)
		}
		entry.Seq = stats.MaxSeq + 1

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create entry: %w", MapGormError(err))
		}
		return nil
	})
}

// GetByID retrieves an entry by its UUID
func (r *EntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&entry)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &entry, nil
}

// List retrieves every entry ordered by position, ties by arrival.
func (r *EntryRepository) List(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	result := r.db.WithContext(ctx).
		Order("position ASC").
		Order("seq ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list entries: %w", MapGormError(result.Error))
	}
	return entries, nil
}

// Update applies updates to a single entry.
func (r *EntryRepository) Update(ctx context.Context, id uuid.UUID, updates EntryUpdates) error {
	if len(updates) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", id.String()).
		Updates(map[string]interface{}(updates))
	if result.Error != nil {
		return fmt.Errorf("failed to update entry: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes an entry by its UUID
func (r *EntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Entry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BatchUpdate applies the same updates to every id in one transaction.
// A missing id rolls the whole batch back.
func (r *EntryRepository) BatchUpdate(ctx context.Context, ids []uuid.UUID, updates EntryUpdates) error {
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Entry{}).
			Where("id IN ?", idStrings(ids)).
			Updates(map[string]interface{}(updates))
		if result.Error != nil {
			return fmt.Errorf("failed to batch update entries: %w", MapGormError(result.Error))
		}
		if result.RowsAffected != int64(len(distinct(ids))) {
			return fmt.Errorf("batch update matched %d of %d entries: %w", result.RowsAffected, len(ids), ErrNotFound)
		}
		return nil
	})
}

// BatchDelete deletes every id in one transaction.
func (r *EntryRepository) BatchDelete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id IN ?", idStrings(ids)).Delete(&models.Entry{})
		if result.Error != nil {
			return fmt.Errorf("failed to batch delete entries: %w", MapGormError(result.Error))
		}
		if result.RowsAffected != int64(len(distinct(ids))) {
			return fmt.Errorf("batch delete matched %d of %d entries: %w", result.RowsAffected, len(ids), ErrNotFound)
		}
		return nil
	})
}

// Reorder sets the position of every listed entry in one transaction.
func (r *EntryRepository) Reorder(ctx context.Context, positions map[uuid.UUID]int) error {
	if len(positions) == 0 {
		return nil
	}
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		for id, position := range positions {
			result := tx.Model(&models.Entry{}).
				Where("id = ?", id.String()).
				Update("position", position)
			if result.Error != nil {
				return fmt.Errorf("failed to update position for entry %s: %w", id, MapGormError(result.Error))
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("entry %s: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func distinct(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
