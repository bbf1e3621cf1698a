package event

import (
	"context"

	"github.com/ricardo118/stripe-checkout/internal/domain"
)

// Type identifies a cart mutation. The names are part of the event
// contract; downstream consumers key off them.
type Type string

const (
	ItemAdded   Type = "item-added"
	ItemUpdated Type = "item-updated"
	ItemRemoved Type = "item-removed"
	CartCleared Type = "cart-cleared"
)

// Event is emitted once per cart mutation. Product is the affected line
// item (nil for cart-cleared) and Items is the full post-mutation list,
// letting observers re-render without polling the store.
type Event struct {
	Type    Type              `json:"type"`
	CartID  string            `json:"cart_id"`
	Product *domain.LineItem  `json:"product,omitempty"`
	Items   []domain.LineItem `json:"items"`
}

// Publisher delivers cart change events to observers.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
