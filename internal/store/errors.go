package store

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/streamhub/internal/db"
)

// StoreError reports a failed store operation. Err is the underlying cause
// (db.ErrNotFound, db.ErrInvalidInput, media.ErrInvalidVideoURL or a transport error).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError checks if err is a StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsNotFound checks if err was caused by a missing entry
func IsNotFound(err error) bool {
	return db.IsNotFound(err)
}
