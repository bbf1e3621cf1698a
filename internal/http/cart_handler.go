package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/domain"
)

// CartHandler exposes the cart store over REST for storefronts that drive
// the cart from the server rather than from page scripts.
type CartHandler struct {
	manager *cart.Manager
	timeout time.Duration
}

func NewCartHandler(manager *cart.Manager, timeout time.Duration) *CartHandler {
	return &CartHandler{
		manager: manager,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	SKU      string        `json:"sku"`
	Quantity int           `json:"quantity"`
	Extras   domain.Extras `json:"extras,omitempty"`
}

type SetQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type AdjustQuantityRequestDTO struct {
	Amount int `json:"amount"`
}

type CartResponseDTO struct {
	CartID string            `json:"cart_id"`
	Items  []domain.LineItem `json:"items"`
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, context.Context, context.CancelFunc, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)

	cartID := getCartIDFromContext(r.Context())
	if cartID == "" {
		cancel()
		respondError(w, http.StatusBadRequest, "missing_cart_id", "no cart identifier on request")
		return nil, nil, nil, false
	}

	store, err := h.manager.Get(ctx, cartID)
	if err != nil {
		cancel()
		respondError(w, http.StatusInternalServerError, "storage_unavailable", "could not load cart")
		return nil, nil, nil, false
	}

	return store, ctx, cancel, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int, store *cart.Store) {
	respondJSON(w, status, CartResponseDTO{
		CartID: store.ID(),
		Items:  store.Items(),
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, _, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	h.respondCart(w, http.StatusOK, store)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ctx, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SKU == "" {
		respondError(w, http.StatusBadRequest, "invalid_sku", "sku must not be empty")
		return
	}

	if err := store.AddProduct(ctx, req.SKU, req.Quantity, req.Extras); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add product")
		return
	}

	h.respondCart(w, http.StatusCreated, store)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	store, ctx, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	sku := chi.URLParam(r, "sku")

	var req SetQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := store.SetQuantity(ctx, sku, req.Quantity)
	if errors.Is(err, cart.ErrItemNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "item not in cart")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set quantity")
		return
	}

	h.respondCart(w, http.StatusOK, store)
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjustQuantity(w, r, func(ctx context.Context, store *cart.Store, sku string, amount int) error {
		return store.IncreaseQuantity(ctx, sku, amount)
	})
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjustQuantity(w, r, func(ctx context.Context, store *cart.Store, sku string, amount int) error {
		return store.DecreaseQuantity(ctx, sku, amount)
	})
}

func (h *CartHandler) adjustQuantity(w http.ResponseWriter, r *http.Request, adjust func(context.Context, *cart.Store, string, int) error) {
	store, ctx, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	sku := chi.URLParam(r, "sku")

	req := AdjustQuantityRequestDTO{Amount: 1}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	if err := adjust(ctx, store, sku, req.Amount); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to adjust quantity")
		return
	}

	h.respondCart(w, http.StatusOK, store)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ctx, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	sku := chi.URLParam(r, "sku")

	if err := store.RemoveProduct(ctx, sku); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove product")
		return
	}

	h.respondCart(w, http.StatusOK, store)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ctx, cancel, ok := h.store(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := store.ClearCart(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	h.respondCart(w, http.StatusOK, store)
}
