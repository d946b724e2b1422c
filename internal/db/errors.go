package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository errors
var (
	// ErrNotFound indicates no entry or settings row matched
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates an entry id already exists
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidInput indicates a write the schema rejects
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy indicates SQLite gave up waiting for the write lock
	ErrBusy = errors.New("database is busy")
)

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate checks if error is a duplicate error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// sqliteErrors maps driver message fragments onto repository errors.
var sqliteErrors = []struct {
	fragment string
	err      error
}{
	{"unique constraint failed", ErrDuplicate},
	{"not null constraint failed", ErrInvalidInput},
	{"check constraint failed", ErrInvalidInput},
	{"database is locked", ErrBusy},
}

// MapGormError maps GORM and SQLite errors to repository errors. Unknown
// errors pass through unchanged.
func MapGormError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	for _, m := range sqliteErrors {
		if strings.Contains(msg, m.fragment) {
			return m.err
		}
	}
	return err
}
