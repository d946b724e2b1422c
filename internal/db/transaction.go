package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction executes a function within a database transaction.
// The transaction is committed if fn returns nil and rolled back otherwise.
// fn must only use tx: the pool holds a single connection.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
		return nil
	})
}
