package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const tagKeyPrefix = "tag:"

// Factory computes a value on a cache miss. It may fail; factory errors
// are the one class of error GetOrCompute passes through to the caller.
type Factory func(ctx context.Context) (any, error)

type inflightCall struct {
	done  chan struct{}
	value any
	err   error
}

// TieredCache layers tiers from fastest to slowest. Reads consult tiers in
// order and load-through populate the faster tiers on a slow hit. No read
// or maintenance operation returns an error: tier failures are logged and
// degrade to a miss.
type TieredCache struct {
	tiers  []Tier
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// NewTieredCache creates a cache over the given tiers, ordered fastest first.
func NewTieredCache(logger *slog.Logger, tiers ...Tier) *TieredCache {
	return &TieredCache{
		tiers:    tiers,
		logger:   logger.With("module", "cache"),
		inflight: make(map[string]*inflightCall),
	}
}

// Get returns the cached value for key, or ok=false on a miss. A hit in a
// slower tier populates the faster tiers before returning unless
// opts.SkipLoadThrough is set.
func (c *TieredCache) Get(ctx context.Context, key string, opts Options) (any, bool) {
	scoped := opts.scopedKey(key)

	for i, tier := range c.applicableTiers(opts) {
		value, ok, err := tier.Get(ctx, scoped)
		if err != nil {
			c.logSwallowed(ctx, &Error{Op: "Get", Tier: tier.Name(), Key: key, Err: err})

			continue
		}

		if !ok {
			continue
		}

		if i > 0 && !opts.SkipLoadThrough {
			c.populateFasterTiers(ctx, scoped, key, value, i, opts)
		}

		return value, true
	}

	return nil, false
}

// Set writes key to every applicable tier. Durable-tier failures are
// logged, never returned; an oversize durable payload is an expected
// rejection logged at WARN.
func (c *TieredCache) Set(ctx context.Context, key string, value any, ttl time.Duration, opts Options) {
	scoped := opts.scopedKey(key)

	for _, tier := range c.applicableTiers(opts) {
		err := tier.Set(ctx, scoped, value, ttl)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrValueTooLarge) {
			c.logger.WarnContext(ctx, "Cache value rejected by size ceiling",
				"tier", tier.Name(), "key", key)

			continue
		}

		c.logSwallowed(ctx, &Error{Op: "Set", Tier: tier.Name(), Key: key, Err: err})
	}
}

// Delete removes key from every applicable tier.
func (c *TieredCache) Delete(ctx context.Context, key string, opts Options) {
	scoped := opts.scopedKey(key)

	for _, tier := range c.applicableTiers(opts) {
		err := tier.Delete(ctx, scoped)
		if err != nil {
			c.logSwallowed(ctx, &Error{Op: "Delete", Tier: tier.Name(), Key: key, Err: err})
		}
	}
}

// Clear drops every entry from every applicable tier.
func (c *TieredCache) Clear(ctx context.Context, opts Options) {
	for _, tier := range c.applicableTiers(opts) {
		err := tier.Clear(ctx)
		if err != nil {
			c.logSwallowed(ctx, &Error{Op: "Clear", Tier: tier.Name(), Err: err})
		}
	}
}

// SetWithTags stores key and indexes it under each tag for bulk
// invalidation. Tag index entries live twice as long as their members so
// an expired tag list cannot orphan live entries.
func (c *TieredCache) SetWithTags(ctx context.Context, key string, value any, ttl time.Duration, tags []string, opts Options) {
	c.Set(ctx, key, value, ttl, opts)

	for _, tag := range tags {
		tagKey := tagKeyPrefix + tag

		members := c.tagMembers(ctx, tag, opts)

		found := false

		for _, member := range members {
			if member == key {
				found = true

				break
			}
		}

		if !found {
			members = append(members, key)
		}

		c.Set(ctx, tagKey, members, 2*ttl, opts)
	}
}

// InvalidateByTag removes every key indexed under tag, then the index itself.
func (c *TieredCache) InvalidateByTag(ctx context.Context, tag string, opts Options) int {
	members := c.tagMembers(ctx, tag, opts)

	for _, member := range members {
		c.Delete(ctx, member, opts)
	}

	c.Delete(ctx, tagKeyPrefix+tag, opts)

	return len(members)
}

// GetOrCompute implements cache-aside: a hit returns the cached value, a
// miss invokes factory and stores non-nil results. Concurrent callers for
// the same key share a single in-flight factory invocation. If the cache
// layer itself fails the factory still runs, so callers never fail on
// account of the cache.
func (c *TieredCache) GetOrCompute(ctx context.Context, key string, factory Factory, ttl time.Duration, opts Options) (any, error) {
	if value, ok := c.Get(ctx, key, opts); ok {
		return value, nil
	}

	scoped := opts.scopedKey(key)

	c.mu.Lock()

	if call, ok := c.inflight[scoped]; ok {
		c.mu.Unlock()

		select {
		case <-call.done:
			return call.value, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	c.inflight[scoped] = call
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, scoped)
		c.mu.Unlock()

		close(call.done)
	}()

	call.value, call.err = factory(ctx)
	if call.err != nil {
		return nil, call.err
	}

	if call.value != nil {
		c.Set(ctx, key, call.value, ttl, opts)
	}

	return call.value, nil
}

// Cleanup purges expired entries from every tier and returns the total removed.
func (c *TieredCache) Cleanup(ctx context.Context) int {
	total := 0

	for _, tier := range c.tiers {
		removed, err := tier.Cleanup(ctx)
		if err != nil {
			c.logSwallowed(ctx, &Error{Op: "Cleanup", Tier: tier.Name(), Err: err})

			continue
		}

		total += removed
	}

	return total
}

// applicableTiers narrows the tier list for an operation. The first tier
// is the fast in-memory one; everything after it is durable.
func (c *TieredCache) applicableTiers(opts Options) []Tier {
	if opts.MemoryOnly && len(c.tiers) > 0 {
		return c.tiers[:1]
	}

	if opts.DurableOnly && len(c.tiers) > 1 {
		return c.tiers[1:]
	}

	return c.tiers
}

func (c *TieredCache) populateFasterTiers(ctx context.Context, scoped, key string, value any, hitIndex int, opts Options) {
	tiers := c.applicableTiers(opts)

	for i := 0; i < hitIndex; i++ {
		err := tiers[i].Set(ctx, scoped, value, DefaultLoadThroughTTL)
		if err != nil {
			c.logSwallowed(ctx, &Error{Op: "LoadThrough", Tier: tiers[i].Name(), Key: key, Err: err})
		}
	}
}

func (c *TieredCache) tagMembers(ctx context.Context, tag string, opts Options) []string {
	raw, ok := c.Get(ctx, tagKeyPrefix+tag, opts)
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		// Durable tiers round-trip through JSON and lose the []string type.
		members := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				members = append(members, s)
			}
		}

		return members
	default:
		return nil
	}
}

func (c *TieredCache) logSwallowed(ctx context.Context, err *Error) {
	c.logger.ErrorContext(ctx, "Cache operation failed, degrading to miss",
		"op", err.Op, "tier", err.Tier, "key", err.Key, "error", err.Err)
}
