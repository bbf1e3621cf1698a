package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ricardo118/stripe-checkout/internal/event"
	"github.com/ricardo118/stripe-checkout/internal/storage"
)

// Manager hands out one Store per cart ID for the life of the process.
// Concurrent first requests for the same cart collapse into a single
// snapshot load via singleflight.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]*Store
	sfg    singleflight.Group

	kv  storage.KeyValueStore
	pub event.Publisher
	log zerolog.Logger
}

func NewManager(kv storage.KeyValueStore, pub event.Publisher, log zerolog.Logger) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		kv:     kv,
		pub:    pub,
		log:    log,
	}
}

// Get returns the store for cartID, loading its snapshot on first use.
func (m *Manager) Get(ctx context.Context, cartID string) (*Store, error) {
	m.mu.RLock()
	store, exists := m.stores[cartID]
	m.mu.RUnlock()
	if exists {
		return store, nil
	}

	v, err, _ := m.sfg.Do(cartID, func() (interface{}, error) {
		m.mu.RLock()
		existing, ok := m.stores[cartID]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}

		loaded, errLoad := NewStore(ctx, cartID, m.kv, m.pub, m.log)
		if errLoad != nil {
			return nil, errLoad
		}

		m.mu.Lock()
		m.stores[cartID] = loaded
		m.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Store), nil
}
