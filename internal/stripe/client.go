package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.stripe.com"

	// hostedCheckoutURL is where Stripe.js sends customers when handed a
	// session ID; the server-side redirect uses the same page.
	hostedCheckoutURL = "https://checkout.stripe.com/pay/"
)

// SessionLineItem is one provider-facing line: amounts are in minor units
// (cents) as Stripe requires.
type SessionLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
	Currency   string
}

// SessionParams configures a one-time-payment checkout session.
type SessionParams struct {
	LineItems  []SessionLineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// Session is the ephemeral value returned by Stripe; it is consumed
// immediately to build a redirect and never stored by the client.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionCreator is the capability the session endpoint depends on.
type SessionCreator interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
}

// APIError is a rejection from the Stripe API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (type=%s, status=%d)", e.Message, e.Type, e.StatusCode)
}

// Client talks to the Stripe checkout sessions API directly over HTTP
// with form-encoded bodies. Timeout handling is the HTTP client's; no
// retry layer is added here.
type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", item.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	endpoint := c.baseURL + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiResp struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "unreadable error response"}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Type:       apiResp.Error.Type,
			Message:    apiResp.Error.Message,
		}
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session response missing id")
	}

	return &session, nil
}

// HostedCheckoutURL builds the redirect target for a session identifier.
// When the full session URL is known it should be preferred; this covers
// callers that only hold the identifier.
func HostedCheckoutURL(sessionID string) string {
	return hostedCheckoutURL + url.PathEscape(sessionID)
}
