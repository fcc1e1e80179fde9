package ports

import (
	"context"
	"time"
)

// KeyValueStore is the shared, network-visible state behind signup verification.
// Every record it holds expires; an expired key is indistinguishable from one
// that was never written. Implementations MUST be safe for concurrent use by
// multiple processes and MUST reject ttl <= 0.
type KeyValueStore interface {
	// SetWithTTL unconditionally writes value under key.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value for key; ok=false when absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// GetAndDelete reads and removes key as one indivisible operation. Of any
	// number of concurrent callers for the same key at most one observes ok=true.
	GetAndDelete(ctx context.Context, key string) (value string, ok bool, err error)
	// Delete removes key; absence is not an error.
	Delete(ctx context.Context, key string) error

	// HashSetWithTTL creates (or replaces) a hash and its expiry atomically.
	HashSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// HashGetAll returns all fields of a hash; ok=false when absent or expired.
	HashGetAll(ctx context.Context, key string) (fields map[string]string, ok bool, err error)
	// HashSetIfExists sets one field of an existing hash, keeping its expiry.
	// It never recreates an expired hash; ok reports whether the hash existed.
	HashSetIfExists(ctx context.Context, key, field, value string) (ok bool, err error)
}
