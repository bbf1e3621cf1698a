package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/checkout"
)

// SessionHandler is the session endpoint: it converts posted cart lines
// into a provider checkout session and answers with the session
// identifier or a structured error. Failures are never fatal to the
// process.
type SessionHandler struct {
	service *checkout.SessionService
	timeout time.Duration
	log     zerolog.Logger
}

func NewSessionHandler(service *checkout.SessionService, timeout time.Duration, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	req, err := decodeCheckoutRequest(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, checkout.SessionResponse{
			Status:  "error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.service.CreateSession(ctx, getCartIDFromContext(r.Context()), req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, checkout.ErrEmptyCart) {
			status = http.StatusBadRequest
		} else {
			h.log.Error().Err(err).Msg("session creation failed")
		}
		respondJSON(w, status, checkout.SessionResponse{
			Status:  "error",
			Message: checkout.SanitizeError(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, checkout.SessionResponse{
		Status:    "success",
		SessionID: result.SessionID,
		Skipped:   result.Skipped,
	})
}

// decodeCheckoutRequest accepts both the current {cart, comments} body
// and the legacy bare-array body without comments.
func decodeCheckoutRequest(body io.Reader) (*checkout.CheckoutRequest, error) {
	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return nil, err
	}

	var req checkout.CheckoutRequest
	if err := json.Unmarshal(data, &req); err == nil {
		return &req, nil
	}

	var lines []checkout.CheckoutLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return &checkout.CheckoutRequest{Cart: lines}, nil
}
