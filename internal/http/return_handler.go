package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/repository"
)

// ReturnHandler handles the customer coming back from the hosted payment
// page. A result=success marker clears the cart after the configured
// delay and marks the recorded session completed.
type ReturnHandler struct {
	manager  *cart.Manager
	sessions repository.SessionStore // nil disables session bookkeeping
	delay    time.Duration
	log      zerolog.Logger
}

func NewReturnHandler(manager *cart.Manager, sessions repository.SessionStore, delay time.Duration, log zerolog.Logger) *ReturnHandler {
	return &ReturnHandler{
		manager:  manager,
		sessions: sessions,
		delay:    delay,
		log:      log,
	}
}

func (h *ReturnHandler) Return(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("result") != "success" {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" && h.sessions != nil {
		err := h.sessions.MarkCompleted(r.Context(), sessionID)
		if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to mark session completed")
		}
	}

	cartID := getCartIDFromContext(r.Context())
	if cartID == "" {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	store, err := h.manager.Get(r.Context(), cartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_unavailable", "could not load cart")
		return
	}

	if h.delay > 0 {
		// Give the storefront one last render of the cart before it goes.
		log := h.log
		time.AfterFunc(h.delay, func() {
			if err := store.ClearCart(context.Background()); err != nil {
				log.Error().Err(err).Str("cart_id", store.ID()).Msg("delayed cart clear failed")
			}
		})
	} else if err := store.ClearCart(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
