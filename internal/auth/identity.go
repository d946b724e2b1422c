package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
)

// Identity is a signed-in principal.
type Identity struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Anonymous bool      `json:"anonymous"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service signs in displays and admins.
type Service struct {
	tokens    *TokenService
	passwords *Passwords
}

// NewService creates an auth service.
func NewService(tokens *TokenService, passwords *Passwords) *Service {
	return &Service{tokens: tokens, passwords: passwords}
}

// Passwords returns the admin password checker.
func (s *Service) Passwords() *Passwords {
	return s.passwords
}

// SignIn tries customToken first and falls back to an anonymous identity once.
// It returns an AuthError only when both attempts fail.
func (s *Service) SignIn(customToken string) (*Identity, error) {
	if customToken != "" {
		id, err := s.signInCustom(customToken)
		if err == nil {
			return id, nil
		}
		logger.Log.Warn().Err(err).Msg("Custom token sign-in failed, falling back to anonymous")
	}

	id, err := s.signInAnonymous()
	if err != nil {
		return nil, &AuthError{Op: "sign-in", Err: err}
	}
	return id, nil
}

func (s *Service) signInCustom(raw string) (*Identity, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	token, expires, err := s.tokens.Issue(claims.Subject, RoleSession, claims.Anonymous)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.Subject, Role: RoleSession, Anonymous: claims.Anonymous, Token: token, ExpiresAt: expires}, nil
}

func (s *Service) signInAnonymous() (*Identity, error) {
	subject := uuid.New().String()
	token, expires, err := s.tokens.Issue(subject, RoleSession, true)
	if err != nil {
		return nil, fmt.Errorf("failed to issue anonymous token: %w", err)
	}
	return &Identity{UserID: subject, Role: RoleSession, Anonymous: true, Token: token, ExpiresAt: expires}, nil
}

// Login checks the admin password and issues an admin token.
func (s *Service) Login(password string) (*Identity, error) {
	if err := s.passwords.Verify(password); err != nil {
		return nil, err
	}
	subject := "admin"
	token, expires, err := s.tokens.Issue(subject, RoleAdmin, false)
	if err != nil {
		return nil, &AuthError{Op: "login", Err: err}
	}
	return &Identity{UserID: subject, Role: RoleAdmin, Token: token, ExpiresAt: expires}, nil
}

// Authorize verifies raw and checks it grants role.
func (s *Service) Authorize(raw string, role Role) (*TokenClaims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !claims.Allows(role) {
		return nil, ErrForbidden
	}
	return claims, nil
}
