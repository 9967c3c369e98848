// Package store provides the durable key-value store that is the single
// source of truth for all persisted application state. Keys are strings,
// values are JSON text. An absent key is a valid "not yet initialized"
// state, never an error.
package store

import "context"

// KV is a single key-value pair.
type KV struct {
	Key   string
	Value string
}

// Store is the persistence interface shared by every component.
//
// Single-key operations are atomic. Multi-key operations are not atomic
// across keys: a failure partway leaves a mixed state, and callers that
// need a consistency boundary must maintain their own commit marker.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value for key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// MultiGet returns pairs for the keys that exist, in request order.
	MultiGet(ctx context.Context, keys []string) ([]KV, error)

	// MultiSet writes all pairs, one key at a time.
	MultiSet(ctx context.Context, pairs []KV) error

	// MultiRemove deletes all keys, one key at a time.
	MultiRemove(ctx context.Context, keys []string) error

	// Keys returns every key currently present.
	Keys(ctx context.Context) ([]string, error)

	// Close releases underlying resources.
	Close() error
}
