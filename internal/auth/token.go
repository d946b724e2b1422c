// Package auth issues session and admin tokens and checks the shared admin password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the privilege carried by a token.
type Role string

// Token roles
const (
	RoleSession Role = "session" // display or anonymous viewer
	RoleAdmin   Role = "admin"   // signed in with the admin password
)

const tokenTypeAccess = "access"

// TokenClaims are the JWT claims of every issued token.
type TokenClaims struct {
	Role      Role   `json:"role"`
	Anonymous bool   `json:"anon,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims grant role. Admin tokens also act as session tokens.
func (c *TokenClaims) Allows(role Role) bool {
	return c.Role == role || c.Role == RoleAdmin
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for subject with role.
func (s *TokenService) Issue(subject string, role Role, anonymous bool) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("token secret not configured")
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &TokenClaims{
		Role:      role,
		Anonymous: anonymous,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies raw and returns its claims.
func (s *TokenService) Parse(raw string) (*TokenClaims, error) {
	if raw == "" || len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
