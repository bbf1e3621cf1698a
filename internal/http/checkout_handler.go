package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/checkout"
	"github.com/ricardo118/stripe-checkout/internal/stripe"
)

// CheckoutHandler runs the checkout initiator for the request's cart:
// 303 to the hosted payment page on success, the error surface payload
// otherwise.
type CheckoutHandler struct {
	manager *cart.Manager
	service *checkout.SessionService
	timeout time.Duration
	log     zerolog.Logger
}

func NewCheckoutHandler(manager *cart.Manager, service *checkout.SessionService, timeout time.Duration, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		manager: manager,
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type CheckoutRequestDTO struct {
	Comments string `json:"comments,omitempty"`
}

// httpRedirector answers the request with a See Other to the hosted
// checkout page.
type httpRedirector struct {
	w http.ResponseWriter
	r *http.Request
}

func (h *httpRedirector) RedirectToCheckout(sessionID string) error {
	http.Redirect(h.w, h.r, stripe.HostedCheckoutURL(sessionID), http.StatusSeeOther)
	return nil
}

// httpErrorSurface writes initiator failures back as the error payload,
// taking the place of the page's error-message element.
type httpErrorSurface struct {
	w http.ResponseWriter
}

func (h *httpErrorSurface) ShowError(message string) {
	respondJSON(h.w, http.StatusBadGateway, checkout.SessionResponse{
		Status:  "error",
		Message: message,
	})
}

func (h *CheckoutHandler) GoToCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartIDFromContext(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "no cart identifier on request")
		return
	}

	store, err := h.manager.Get(ctx, cartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_unavailable", "could not load cart")
		return
	}

	var req CheckoutRequestDTO
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	initiator := checkout.NewInitiator(
		store,
		checkout.NewServicePoster(h.service, cartID),
		&httpRedirector{w: w, r: r},
		&httpErrorSurface{w: w},
		h.log,
	)
	initiator.GoToCheckout(ctx, req.Comments)
}
