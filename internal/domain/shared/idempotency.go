package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already acted upon
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so it can be processed again
	Forget(ctx context.Context, key string) error

	Close() error
}
