package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore
// backed by it.
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, ttl)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_SetGet(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stripe-checkout-items:c1", []byte(`[]`)))

	got, err := store.Get(ctx, "stripe-checkout-items:c1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	// no TTL configured, key must not expire
	assert.Equal(t, time.Duration(0), mr.TTL("stripe-checkout-items:c1"))
}

func TestRedisStore_SetWithTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	assert.GreaterOrEqual(t, mr.TTL("k"), time.Hour)

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _, cleanup := setupTestRedis(t, 0)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "k"), ErrKeyNotFound)
}
