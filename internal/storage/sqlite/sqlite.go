// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// Change notifications are in-process only: every Set is published to the
// subscribers of this store instance. Run a single server against one
// database file, or use the Redis store to share a board between instances.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/humzaiqbal/trash-tracker/internal/storage"
	"github.com/humzaiqbal/trash-tracker/internal/storage/feed"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	feed *feed.Broadcaster
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writers wait for each other instead of failing with SQLITE_BUSY
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, feed: feed.New()}, nil
}

// Close ends all subscriptions and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get retrieves the document stored at key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM documents WHERE key = ?",
		key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return json.RawMessage(value), nil
}

// Set replaces the document at key and publishes the change.
func (s *SQLiteStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("refusing to store invalid JSON at %s", key)
	}
	revision := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (key, value, revision, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision, updated_at = excluded.updated_at`,
		key, string(value), revision, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}

	s.feed.Publish(storage.Change{Key: key, Value: value, Revision: revision})
	return nil
}

// Subscribe delivers every later write to key until ctx is done.
func (s *SQLiteStore) Subscribe(ctx context.Context, key string) (<-chan storage.Change, error) {
	return s.feed.Subscribe(ctx, key), nil
}
