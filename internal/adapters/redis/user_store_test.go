package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/authweb/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestUserStore_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	store := NewUserStore(client)
	ctx := context.Background()

	u := testutil.NewUser().Build()
	require.NoError(t, store.Set(ctx, "session-key", u, time.Minute))

	got, err := store.Get(ctx, "session-key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, *got)

	ttl, err := client.TTL(ctx, DefaultUserPrefix+"session-key").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestUserStore_Miss(t *testing.T) {
	store := NewUserStore(setupTestRedis(t))

	got, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserStore_Delete(t *testing.T) {
	store := NewUserStoreWithPrefix(setupTestRedis(t), "test:user:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", testutil.NewUser().Build(), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserStore_Expires(t *testing.T) {
	store := NewUserStore(setupTestRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", testutil.NewUser().Build(), 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	got, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserStore_EmptyKeyAndTTL(t *testing.T) {
	// No Redis round-trip happens for these, so a dead client is fine.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	store := NewUserStore(client)
	ctx := context.Background()

	got, err := store.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, store.Set(ctx, "", testutil.NewUser().Build(), time.Minute))
	require.NoError(t, store.Set(ctx, "k", testutil.NewUser().Build(), 0))
	require.NoError(t, store.Delete(ctx, ""))
}
