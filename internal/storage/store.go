// Package storage provides abstractions for the shared document store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// Well-known document keys.
const (
	// RoutesKey holds the whole route list as one JSON document.
	RoutesKey = "routes"

	userKeyPrefix = "users/"
)

// ErrNotFound is returned by Get when the key holds no document.
var ErrNotFound = errors.New("document not found")

// UserKey returns the key of a registered user profile.
func UserKey(userID string) string {
	return userKeyPrefix + userID
}

// Change is one write to a key, delivered to subscribers with the full new value.
type Change struct {
	Key      string
	Value    json.RawMessage
	Revision string
}

// Store defines the interface for the shared keyed document store.
// This abstraction allows swapping backends (SQLite, Redis, etc.)
// without changing the synchronizer or service layer.
type Store interface {
	// Get returns the raw document stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set replaces the document at key and notifies subscribers of key.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Subscribe delivers every subsequent Change to key until ctx is done,
	// then closes the channel. It does not replay the current value.
	Subscribe(ctx context.Context, key string) (<-chan Change, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
