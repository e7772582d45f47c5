package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	t.Run("first mark is new", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "low-stock:LAB/Lancets", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("repeat within ttl is not new", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "low-stock:LAB/Swabs", time.Hour)
		require.NoError(t, err)

		fresh, err := store.MarkProcessed(ctx, "low-stock:LAB/Swabs", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("key is new again after expiry", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "low-stock:PHARMACY/Ondansetron 4", time.Minute)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		fresh, err := store.MarkProcessed(ctx, "low-stock:PHARMACY/Ondansetron 4", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", 10*time.Second)
	require.NoError(t, err)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(11 * time.Second)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "low-stock:LAB/Lancets", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Forget(ctx, "low-stock:LAB/Lancets"))

	fresh, err := store.MarkProcessed(ctx, "low-stock:LAB/Lancets", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	assert.NoError(t, store.Forget(ctx, "never-marked"))
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", time.Second)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Second)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 50
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			fresh, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			results <- err == nil && fresh
		}()
	}

	newCount := 0
	for i := 0; i < workers; i++ {
		if <-results {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount, "exactly one caller marks the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(WithCleanupInterval(time.Millisecond))

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
