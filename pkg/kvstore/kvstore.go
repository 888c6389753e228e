// Package kvstore provides the key-value metadata store used for cached
// gating rules and other small lookup data, with memory, pebble and redis
// backends behind one contract.
package kvstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key is not found.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store closed")

	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a minimal key-value contract. Values are opaque bytes; callers
// own serialization. A zero TTL means the entry does not expire.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
