package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardo118/stripe-checkout/internal/storage"
)

type countingKV struct {
	storage.KeyValueStore
	gets atomic.Int64
}

func (c *countingKV) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	return c.KeyValueStore.Get(ctx, key)
}

func TestManager_ReturnsSameStore(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), &recorderPublisher{}, zerolog.Nop())
	ctx := context.Background()

	a, err := m.Get(ctx, "cart-1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "cart-1")
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestManager_SeparateCarts(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), &recorderPublisher{}, zerolog.Nop())
	ctx := context.Background()

	a, err := m.Get(ctx, "cart-1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "cart-2")
	require.NoError(t, err)

	require.NoError(t, a.AddProduct(ctx, "A", 1, nil))
	assert.Empty(t, b.Items())
}

func TestManager_ConcurrentFirstLoadCollapses(t *testing.T) {
	kv := &countingKV{KeyValueStore: storage.NewMemoryStore()}
	m := NewManager(kv, &recorderPublisher{}, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	stores := make([]*Store, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "cart-1")
			require.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), kv.gets.Load(), "snapshot loaded once")
	for _, s := range stores[1:] {
		assert.Same(t, stores[0], s)
	}
}
