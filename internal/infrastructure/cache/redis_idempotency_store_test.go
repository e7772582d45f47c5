package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/infrastructure/config"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisIdempotencyStore_KeyPrefix(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	assert.Equal(t, DefaultKeyPrefix+"low-stock:LAB/Lancets",
		NewRedisIdempotencyStoreWithClient(client, "").key("low-stock:LAB/Lancets"))
	assert.Equal(t, "test:k", NewRedisIdempotencyStoreWithClient(client, "test:").key("k"))
}

func TestRedisIdempotencyStore_WrapsConnectionErrors(t *testing.T) {
	store := NewRedisIdempotencyStoreWithClient(unreachableClient(), "test:")
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark k")

	_, err = store.IsProcessed(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check k")

	err = store.Forget(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forget k")
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("in-memory when redis is disabled", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(unreachable).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis idempotency store")
	})
}
