package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// SettingsStore is the part of the store the password check depends on.
type SettingsStore interface {
	Settings() models.Settings
	SubscribeSettings(onChange func(models.Settings)) store.Unsubscribe
	UpdateSettings(ctx context.Context, patch store.SettingsPatch) error
}

// Passwords checks the shared admin password. A bcrypt override from the
// settings record wins over the configured default.
type Passwords struct {
	settings    SettingsStore
	defaultPass string
	cost        int

	mu       sync.RWMutex
	override string
	unsub    store.Unsubscribe
}

// NewPasswords creates a password checker and keeps it current with settings changes.
func NewPasswords(settings SettingsStore, defaultPassword string) *Passwords {
	p := &Passwords{
		settings:    settings,
		defaultPass: defaultPassword,
		cost:        bcrypt.DefaultCost,
		override:    settings.Settings().PasswordHash,
	}
	p.unsub = settings.SubscribeSettings(func(s models.Settings) {
		p.mu.Lock()
		p.override = s.PasswordHash
		p.mu.Unlock()
	})
	return p
}

// Close stops following settings changes.
func (p *Passwords) Close() {
	if p.unsub != nil {
		p.unsub()
	}
}

// HasOverride reports whether a changed password is in effect.
func (p *Passwords) HasOverride() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.override != ""
}

// Verify checks input against the effective password.
func (p *Passwords) Verify(input string) error {
	p.mu.RLock()
	override := p.override
	p.mu.RUnlock()

	switch {
	case override != "":
		if err := bcrypt.CompareHashAndPassword([]byte(override), []byte(input)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	case p.defaultPass != "":
		if subtle.ConstantTimeCompare([]byte(p.defaultPass), []byte(input)) != 1 {
			return ErrInvalidCredentials
		}
		return nil
	default:
		return ErrNoPasswordConfigured
	}
}

// Change stores a new override password.
func (p *Passwords) Change(ctx context.Context, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	h := string(hash)
	if err := p.settings.UpdateSettings(ctx, store.SettingsPatch{PasswordHash: &h}); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	p.set(h)
	logger.Log.Info().Msg("Admin password changed")
	return nil
}

// Reset clears the override so the configured default applies again.
func (p *Passwords) Reset(ctx context.Context) error {
	empty := ""
	if err := p.settings.UpdateSettings(ctx, store.SettingsPatch{PasswordHash: &empty}); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	p.set("")
	if p.defaultPass == "" {
		logger.Log.Warn().Msg("Admin password reset with no default configured; login is disabled")
	} else {
		logger.Log.Info().Msg("Admin password reset to default")
	}
	return nil
}

func (p *Passwords) set(hash string) {
	p.mu.Lock()
	p.override = hash
	p.mu.Unlock()
}
