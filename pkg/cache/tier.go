package cache

import (
	"context"
	"time"
)

// Tier is one storage layer of the tiered cache. Implementations treat
// expired entries as absent and purge them lazily on read.
type Tier interface {
	// Name identifies the tier in logs.
	Name() string

	// Get returns the stored value, or ok=false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value any, ok bool, err error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes key from the tier; absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the tier.
	Clear(ctx context.Context) error

	// Cleanup purges expired entries on demand and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
