// Package db provides database connection management and repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
	defaultPingWait = 5 * time.Second
)

// Options tunes the SQLite connection.
type Options struct {
	EnableWAL         bool
	ConnectionTimeout time.Duration
}

// DB wraps a GORM database connection
type DB struct {
	*gorm.DB
}

// New opens the SQLite database at dbPath with foreign keys and WAL enabled.
func New(dbPath string) (*DB, error) {
	return Open(dbPath, Options{EnableWAL: true, ConnectionTimeout: defaultPingWait})
}

// Open opens the SQLite database at dbPath, creating its directory if needed.
func Open(dbPath string, opts Options) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
	if opts.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite serialises writers; a single connection keeps batch
	// transactions from failing with "database is locked".
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	wait := opts.ConnectionTimeout
	if wait <= 0 {
		wait = defaultPingWait
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: gormDB}, nil
}

// Health checks database connectivity
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB for migrations
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
