package auth

import (
	"errors"
	"fmt"
)

// Auth errors
var (
	// ErrInvalidCredentials indicates a wrong admin password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoPasswordConfigured indicates neither an override nor a default
	// password exists. Admin login fails closed in that case.
	ErrNoPasswordConfigured = errors.New("no admin password configured")

	// ErrEmptyPassword indicates an attempt to set an empty password
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrInvalidToken indicates a missing, malformed or expired token
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates a valid token without the required role
	ErrForbidden = errors.New("insufficient role")
)

// AuthError reports an identity-provider failure.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError checks if err is an AuthError
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
