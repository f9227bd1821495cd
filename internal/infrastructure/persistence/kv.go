// Package persistence stores the serialized snapshot in a key-value
// backend, one key per collection. Two backends are provided: an
// embedded SQLite table for a single device and Redis for a shared
// store.
package persistence

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KV is the minimal key-value surface the snapshot store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
