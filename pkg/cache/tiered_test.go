package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTier simulates a broken backing store: every operation errors.
type failingTier struct{}

func (failingTier) Name() string { return "broken" }

func (failingTier) Get(context.Context, string) (any, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingTier) Set(context.Context, string, any, time.Duration) error {
	return errors.New("connection refused")
}

func (failingTier) Delete(context.Context, string) error { return errors.New("connection refused") }

func (failingTier) Clear(context.Context) error { return errors.New("connection refused") }

func (failingTier) Cleanup(context.Context) (int, error) { return 0, errors.New("connection refused") }

func newTestCache(tiers ...Tier) *TieredCache {
	return NewTieredCache(slog.Default(), tiers...)
}

func TestTieredCache_SetThenGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	c.Set(ctx, "k", "v", time.Second, Options{})

	value, ok := c.Get(ctx, "k", Options{})
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestTieredCache_SlowTierHitLoadsThrough(t *testing.T) {
	ctx := context.Background()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	c := newTestCache(fast, slow)

	opts := Options{}
	require.NoError(t, slow.Set(ctx, opts.scopedKey("k"), "v", time.Minute))

	value, ok := c.Get(ctx, "k", opts)
	require.True(t, ok)
	assert.Equal(t, "v", value)

	// The hit must have primed the fast tier.
	_, ok, err := fast.Get(ctx, opts.scopedKey("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTieredCache_SkipLoadThrough(t *testing.T) {
	ctx := context.Background()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	c := newTestCache(fast, slow)

	opts := Options{SkipLoadThrough: true}
	require.NoError(t, slow.Set(ctx, opts.scopedKey("k"), "v", time.Minute))

	_, ok := c.Get(ctx, "k", opts)
	require.True(t, ok)

	_, ok, _ = fast.Get(ctx, opts.scopedKey("k"))
	assert.False(t, ok)
}

func TestTieredCache_SubjectScopeIsolation(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	alice := Options{Scope: ScopeSubject, OwnerID: "alice"}
	bob := Options{Scope: ScopeSubject, OwnerID: "bob"}

	c.Set(ctx, "k", "alice-value", time.Minute, alice)

	_, ok := c.Get(ctx, "k", bob)
	assert.False(t, ok)

	value, ok := c.Get(ctx, "k", alice)
	require.True(t, ok)
	assert.Equal(t, "alice-value", value)
}

func TestTieredCache_BrokenTierDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(failingTier{})

	c.Set(ctx, "k", "v", time.Second, Options{})

	_, ok := c.Get(ctx, "k", Options{})
	assert.False(t, ok)

	c.Delete(ctx, "k", Options{})
	c.Clear(ctx, Options{})
	assert.Equal(t, 0, c.Cleanup(ctx))
}

func TestTieredCache_Tags(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(20))

	c.SetWithTags(ctx, "t1", "a", time.Minute, []string{"templates"}, Options{})
	c.SetWithTags(ctx, "t2", "b", time.Minute, []string{"templates"}, Options{})
	c.Set(ctx, "other", "c", time.Minute, Options{})

	removed := c.InvalidateByTag(ctx, "templates", Options{})
	assert.Equal(t, 2, removed)

	_, ok := c.Get(ctx, "t1", Options{})
	assert.False(t, ok)
	_, ok = c.Get(ctx, "t2", Options{})
	assert.False(t, ok)

	_, ok = c.Get(ctx, "other", Options{})
	assert.True(t, ok, "untagged entries survive tag invalidation")
}

func TestTieredCache_TagIndexSurvivesMemberExpiry(t *testing.T) {
	ctx := context.Background()
	tier := NewMemoryTier(20)
	c := newTestCache(tier)

	now := time.Now()
	tier.now = func() time.Time { return now }

	c.SetWithTags(ctx, "k", "v", time.Minute, []string{"tag"}, Options{})

	// Members expired, index (2x TTL) still alive: invalidation stays safe.
	tier.now = func() time.Time { return now.Add(90 * time.Second) }

	removed := c.InvalidateByTag(ctx, "tag", Options{})
	assert.Equal(t, 1, removed)
}

func TestTieredCache_GetOrCompute(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	calls := 0
	factory := func(context.Context) (any, error) {
		calls++

		return "computed", nil
	}

	value, err := c.GetOrCompute(ctx, "k", factory, time.Minute, Options{})
	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.Equal(t, 1, calls)

	// Second call is served from cache.
	value, err = c.GetOrCompute(ctx, "k", factory, time.Minute, Options{})
	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.Equal(t, 1, calls)
}

func TestTieredCache_GetOrComputeNilResultNotStored(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	calls := 0
	factory := func(context.Context) (any, error) {
		calls++

		return nil, nil
	}

	_, err := c.GetOrCompute(ctx, "k", factory, time.Minute, Options{})
	require.NoError(t, err)

	_, err = c.GetOrCompute(ctx, "k", factory, time.Minute, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "nil results must not be cached")
}

func TestTieredCache_GetOrComputeFactoryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	wantErr := errors.New("upstream down")

	_, err := c.GetOrCompute(ctx, "k", func(context.Context) (any, error) {
		return nil, wantErr
	}, time.Minute, Options{})

	assert.ErrorIs(t, err, wantErr)
}

func TestTieredCache_GetOrComputeFallsBackWhenCacheBroken(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(failingTier{})

	value, err := c.GetOrCompute(ctx, "k", func(context.Context) (any, error) {
		return "computed", nil
	}, time.Minute, Options{})

	require.NoError(t, err)
	assert.Equal(t, "computed", value)
}

func TestTieredCache_GetOrComputeDeduplicatesInFlight(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryTier(10))

	var (
		mu      sync.Mutex
		calls   int
		started = make(chan struct{})
		release = make(chan struct{})
	)

	factory := func(context.Context) (any, error) {
		mu.Lock()
		calls++
		if calls == 1 {
			close(started)
		}
		mu.Unlock()

		<-release

		return "computed", nil
	}

	var wg sync.WaitGroup

	results := make([]any, 2)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			value, err := c.GetOrCompute(ctx, "k", factory, time.Minute, Options{})
			assert.NoError(t, err)

			results[i] = value
		}(i)
	}

	<-started
	// Give the second goroutine a chance to join the in-flight call.
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	assert.LessOrEqual(t, calls, 2)
	assert.Equal(t, "computed", results[0])
	assert.Equal(t, "computed", results[1])
}

func TestTieredCache_CleanupCounts(t *testing.T) {
	ctx := context.Background()
	tier := NewMemoryTier(10)
	c := newTestCache(tier)

	now := time.Now()
	tier.now = func() time.Time { return now }

	c.Set(ctx, "a", 1, time.Second, Options{})
	c.Set(ctx, "b", 2, time.Hour, Options{})

	tier.now = func() time.Time { return now.Add(time.Minute) }

	assert.Equal(t, 1, c.Cleanup(ctx))
}
