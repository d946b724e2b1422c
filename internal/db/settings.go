package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/streamhub/internal/models"
	"gorm.io/gorm"
)

// SettingsRepository handles database operations for settings
// Settings is a singleton table with only one row
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the settings (creates with defaults if not exists)
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	result := r.db.WithContext(ctx).Where("id = ?", 1).First(&settings)

	// If not found, create with defaults
	if result.Error != nil {
		if errors.Is(MapGormError(result.Error), ErrNotFound) {
			defaultSettings := models.DefaultSettings()
			if err := r.db.WithContext(ctx).Create(defaultSettings).Error; err != nil {
				return nil, fmt.Errorf("failed to create default settings: %w", MapGormError(err))
			}
			return defaultSettings, nil
		}
		return nil, MapGormError(result.Error)
	}

	return &settings, nil
}

// SetPasswordHash stores hash as the override password. An empty hash clears it.
func (r *SettingsRepository) SetPasswordHash(ctx context.Context, hash string) (*models.Settings, error) {
	var out models.Settings
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", 1).First(&out)
		if res.Error != nil {
			if !errors.Is(MapGormError(res.Error), ErrNotFound) {
				return MapGormError(res.Error)
			}
			out = *models.DefaultSettings()
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("failed to create default settings: %w", MapGormError(err))
			}
		}

		out.PasswordHash = hash
		out.UpdatedAt = time.Now().UTC()
		// Map form so an empty hash is written.
		if err := tx.Model(&models.Settings{}).Where("id = ?", 1).Updates(map[string]interface{}{
			"password_hash": out.PasswordHash,
			"updated_at":    out.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update settings: %w", MapGormError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
