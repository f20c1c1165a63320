package storage

import "context"

// Store is a durable mapping from string keys to byte values.
// Implementations must be safe for concurrent use and keep values across
// process restarts (MemoryStore being the exception used in tests).
type Store interface {
	// Get returns ErrNotFound when key has no value.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}
