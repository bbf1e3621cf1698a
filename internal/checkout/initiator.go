package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/cart"
)

// SessionResponse is the session endpoint's wire response.
type SessionResponse struct {
	Status    string        `json:"status"`
	SessionID string        `json:"sessionId,omitempty"`
	Message   string        `json:"message,omitempty"`
	Skipped   []SkippedLine `json:"skipped,omitempty"`
}

// Redirector sends the customer to the provider's hosted payment page.
type Redirector interface {
	RedirectToCheckout(sessionID string) error
}

// ErrorSurface is the designated place failures are written to.
// Initiator failures stop here; they are never re-thrown to the caller.
type ErrorSurface interface {
	ShowError(message string)
}

// SessionPoster submits a checkout request to the session endpoint.
type SessionPoster interface {
	PostCheckout(ctx context.Context, req *CheckoutRequest) (*SessionResponse, error)
}

// HTTPPoster posts the checkout request over the wire, the path the
// storefront takes. A single attempt, no retry: a failure means the user
// re-triggers checkout.
type HTTPPoster struct {
	endpointURL string
	client      *http.Client
}

func NewHTTPPoster(endpointURL string) *HTTPPoster {
	return &HTTPPoster{
		endpointURL: endpointURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPPoster) PostCheckout(ctx context.Context, req *CheckoutRequest) (*SessionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	var sessionResp SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return nil, fmt.Errorf("malformed session response: %w", err)
	}

	return &sessionResp, nil
}

// ServicePoster invokes the session service in process, used when the
// initiator and the endpoint live in the same binary so the server does
// not dial itself.
type ServicePoster struct {
	service *SessionService
	cartID  string
}

func NewServicePoster(service *SessionService, cartID string) *ServicePoster {
	return &ServicePoster{service: service, cartID: cartID}
}

func (p *ServicePoster) PostCheckout(ctx context.Context, req *CheckoutRequest) (*SessionResponse, error) {
	result, err := p.service.CreateSession(ctx, p.cartID, req)
	if err != nil {
		return &SessionResponse{Status: "error", Message: SanitizeError(err)}, nil
	}
	return &SessionResponse{
		Status:    "success",
		SessionID: result.SessionID,
		Skipped:   result.Skipped,
	}, nil
}

// Initiator reads a cart store, posts its contents to the session
// endpoint and redirects the customer with the returned session
// identifier. Any failure along the way lands on the error surface and
// the redirect is not attempted.
type Initiator struct {
	store    *cart.Store
	poster   SessionPoster
	redirect Redirector
	errors   ErrorSurface
	log      zerolog.Logger
}

func NewInitiator(store *cart.Store, poster SessionPoster, redirect Redirector, errors ErrorSurface, log zerolog.Logger) *Initiator {
	return &Initiator{
		store:    store,
		poster:   poster,
		redirect: redirect,
		errors:   errors,
		log:      log,
	}
}

// OrderLines builds the provider-facing line list from the cart: id is
// the SKU, name and price come from the extras (name falls back to the
// SKU), every other extra is dropped.
func (i *Initiator) OrderLines() []CheckoutLine {
	items := i.store.Items()
	lines := make([]CheckoutLine, 0, len(items))
	for _, item := range items {
		line := CheckoutLine{
			ID:       item.SKU,
			Name:     item.Extras.Name(),
			Quantity: item.Quantity,
		}
		if line.Name == "" {
			line.Name = item.SKU
		}
		if price, ok := item.Extras.Price(); ok {
			line.Price = &price
		}
		lines = append(lines, line)
	}
	return lines
}

// GoToCheckout runs the whole flow: serialize the cart, post it, redirect
// on success. The network call is the only suspension point; the cart is
// not locked while the request is in flight, so a concurrent mutation is
// not reflected in this request's payload but stays persisted afterwards.
func (i *Initiator) GoToCheckout(ctx context.Context, comments string) {
	req := &CheckoutRequest{
		Cart:     i.OrderLines(),
		Comments: comments,
	}

	resp, err := i.poster.PostCheckout(ctx, req)
	if err != nil {
		i.log.Error().Err(err).Msg("checkout request failed")
		i.errors.ShowError(err.Error())
		return
	}

	if resp.Status != "success" || resp.SessionID == "" {
		message := resp.Message
		if message == "" {
			message = "checkout session could not be created"
		}
		i.errors.ShowError(message)
		return
	}

	if err := i.redirect.RedirectToCheckout(resp.SessionID); err != nil {
		i.log.Error().Err(err).Str("session_id", resp.SessionID).Msg("redirect to checkout failed")
		i.errors.ShowError(err.Error())
	}
}
