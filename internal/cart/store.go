package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/domain"
	"github.com/ricardo118/stripe-checkout/internal/event"
	"github.com/ricardo118/stripe-checkout/internal/storage"
)

// snapshotKeyPrefix is the stable storage key vocabulary, namespaced per
// cart since one process serves many carts.
const snapshotKeyPrefix = "stripe-checkout-items"

var ErrItemNotFound = errors.New("item not found in cart")

// Store owns a single cart: an insertion-ordered list of line items,
// mirrored to durable storage after every mutation and announced through
// the publisher. A mutation completes, including persistence and
// notification, before the call returns, so observers never see a
// persisted-but-not-notified cart.
type Store struct {
	mu    sync.Mutex
	id    string
	items []domain.LineItem

	kv  storage.KeyValueStore
	pub event.Publisher
	log zerolog.Logger
}

// NewStore loads the persisted snapshot for the given cart ID, or starts
// empty when none exists. A malformed snapshot is treated as empty with a
// logged warning rather than failing the cart.
func NewStore(ctx context.Context, id string, kv storage.KeyValueStore, pub event.Publisher, log zerolog.Logger) (*Store, error) {
	s := &Store{
		id:  id,
		kv:  kv,
		pub: pub,
		log: log.With().Str("cart_id", id).Logger(),
	}

	data, err := kv.Get(ctx, s.key())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn().Err(err).Msg("malformed cart snapshot, starting empty")
		return s, nil
	}
	s.items = items

	return s, nil
}

func (s *Store) ID() string {
	return s.id
}

// Items returns a copy of the ordered line item list.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CopyItems(s.items)
}

// GetProduct returns the line item for sku, read-only.
func (s *Store) GetProduct(sku string) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(sku)
	if idx < 0 {
		return domain.LineItem{}, false
	}
	return s.items[idx], true
}

// AddProduct creates a line item for an absent sku, or adds quantityDelta
// to an existing one (negative deltas reduce it). Extras, when supplied,
// overwrite the item's extras. A resulting quantity at or below zero
// removes the item instead; the removal notification carries the
// zero-reduced product.
func (s *Store) AddProduct(ctx context.Context, sku string, quantityDelta int, extras domain.Extras) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProduct(ctx, sku, quantityDelta, extras)
}

func (s *Store) addProduct(ctx context.Context, sku string, quantityDelta int, extras domain.Extras) error {
	idx := s.index(sku)
	if idx < 0 {
		product := domain.LineItem{SKU: sku, Quantity: quantityDelta, Extras: extras}
		s.items = append(s.items, product)
		if product.Quantity <= 0 {
			return s.removeAt(ctx, len(s.items)-1)
		}
		if err := s.persist(ctx); err != nil {
			return err
		}
		s.emit(ctx, event.ItemAdded, &product)
		return nil
	}

	s.items[idx].Quantity += quantityDelta
	if extras != nil {
		s.items[idx].Extras = extras
	}
	product := s.items[idx]
	if product.Quantity <= 0 {
		return s.removeAt(ctx, idx)
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit(ctx, event.ItemUpdated, &product)
	return nil
}

// RemoveProduct removes sku from the cart, persisting and notifying.
// An absent sku is a silent no-op: no event, no persistence.
func (s *Store) RemoveProduct(ctx context.Context, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(sku)
	if idx < 0 {
		return nil
	}
	return s.removeAt(ctx, idx)
}

// SetQuantity sets the absolute quantity of an existing item. An absent
// sku fails with ErrItemNotFound. A quantity at or below zero removes the
// item, matching AddProduct's normalization.
func (s *Store) SetQuantity(ctx context.Context, sku string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(sku)
	if idx < 0 {
		return ErrItemNotFound
	}

	s.items[idx].Quantity = quantity
	product := s.items[idx]
	if quantity <= 0 {
		return s.removeAt(ctx, idx)
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit(ctx, event.ItemUpdated, &product)
	return nil
}

// IncreaseQuantity is a convenience wrapper over AddProduct.
func (s *Store) IncreaseQuantity(ctx context.Context, sku string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProduct(ctx, sku, amount, nil)
}

// DecreaseQuantity applies a non-positive delta regardless of the sign of
// amount, so callers may pass 3 or -3 interchangeably.
func (s *Store) DecreaseQuantity(ctx context.Context, sku string, amount int) error {
	if amount > 0 {
		amount = -amount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProduct(ctx, sku, amount, nil)
}

// ClearCart empties the cart and erases the persisted snapshot.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	err := s.kv.Delete(ctx, s.key())
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("failed to erase cart snapshot: %w", err)
	}

	s.emit(ctx, event.CartCleared, nil)
	return nil
}

func (s *Store) index(sku string) int {
	for i := range s.items {
		if s.items[i].SKU == sku {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(ctx context.Context, idx int) error {
	product := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit(ctx, event.ItemRemoved, &product)
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}

	if err := s.kv.Set(ctx, s.key(), data); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

// emit publishes the event carrying the affected product and the full
// current item list. Publish failures never fail the mutation; the cart
// is already persisted at this point.
func (s *Store) emit(ctx context.Context, typ event.Type, product *domain.LineItem) {
	evt := event.Event{
		Type:    typ,
		CartID:  s.id,
		Product: product,
		Items:   domain.CopyItems(s.items),
	}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Error().Err(err).Str("event_type", string(typ)).Msg("failed to publish cart event")
	}
}

func (s *Store) key() string {
	return fmt.Sprintf("%s:%s", snapshotKeyPrefix, s.id)
}
