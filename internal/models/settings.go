package models

import (
	"time"
)

// Settings is the singleton settings record.
// PasswordHash is the bcrypt hash of the override admin password; empty means
// the configured default applies.
type Settings struct {
	ID           int       `json:"-" gorm:"type:integer;primaryKey;default:1;column:id"`
	PasswordHash string    `json:"-" gorm:"type:text;not null;default:'';column:password_hash"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName pins the table created by the migrations.
func (Settings) TableName() string { return "settings" }

// HasPasswordOverride reports whether an override password is stored.
func (s Settings) HasPasswordOverride() bool {
	return s.PasswordHash != ""
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		ID:        1,
		UpdatedAt: time.Now().UTC(),
	}
}
