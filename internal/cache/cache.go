// Package cache provides an optional read cache in front of the store.
// Cached reads serve directory lookups (accounts, debts); every write path
// invalidates the affected keys. A cache failure is never surfaced to the
// caller — reads fall through to the store.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented cache. Values are JSON-encoded records.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key builds a namespaced cache key from parts.
func Key(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
