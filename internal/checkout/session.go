package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/repository"
	"github.com/ricardo118/stripe-checkout/internal/stripe"
)

// currency is fixed: decimal prices are converted to minor units at two
// decimal places, USD.
const currency = "usd"

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// CheckoutLine is one posted cart line. Price is a pointer so a missing
// price can be told apart from a free item. Amount and Currency together
// mark the alternate pre-computed shape reserved for the intent-based
// flow, which this endpoint does not build line items for.
type CheckoutLine struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Quantity int      `json:"quantity"`
	Amount   *int64   `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// CheckoutRequest is the session endpoint's input: the provider-facing
// line list plus optional free-text comments.
type CheckoutRequest struct {
	Cart     []CheckoutLine `json:"cart"`
	Comments string         `json:"comments,omitempty"`
}

// SkippedLine reports why a posted line produced no provider line item,
// so malformed rows surface to the client instead of vanishing.
type SkippedLine struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// CheckoutResult is the outcome of a successful session creation.
type CheckoutResult struct {
	SessionID string
	Skipped   []SkippedLine
}

// SessionService converts posted cart lines into a provider checkout
// session. Each request is independent; no state is shared across calls.
type SessionService struct {
	provider   stripe.SessionCreator
	sessions   repository.SessionStore // nil disables recording
	successURL string
	cancelURL  string
	log        zerolog.Logger
}

func NewSessionService(provider stripe.SessionCreator, sessions repository.SessionStore, successURL, cancelURL string, log zerolog.Logger) *SessionService {
	return &SessionService{
		provider:   provider,
		sessions:   sessions,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        log,
	}
}

// CreateSession validates the posted lines, converts prices to minor
// units, attaches per-line metadata keyed by index, and asks the provider
// for a one-time-payment session. Zero valid lines fails with
// ErrEmptyCart before any provider call.
func (s *SessionService) CreateSession(ctx context.Context, cartID string, req *CheckoutRequest) (*CheckoutResult, error) {
	lineItems, metadata, skipped, validLines := buildLineItems(req.Cart)

	if req.Comments != "" {
		metadata["comments"] = req.Comments
	}

	if len(lineItems) == 0 {
		return nil, ErrEmptyCart
	}

	session, err := s.provider.CreateSession(ctx, stripe.SessionParams{
		LineItems:  lineItems,
		Metadata:   metadata,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.record(ctx, cartID, session.ID, req.Comments, lineItems, validLines)

	return &CheckoutResult{
		SessionID: session.ID,
		Skipped:   skipped,
	}, nil
}

func buildLineItems(lines []CheckoutLine) ([]stripe.SessionLineItem, map[string]string, []SkippedLine, []CheckoutLine) {
	var (
		items      []stripe.SessionLineItem
		skipped    []SkippedLine
		validLines []CheckoutLine
	)
	metadata := make(map[string]string)

	for i, line := range lines {
		if line.Amount != nil {
			// Pre-computed {amount,currency} shape: reserved for the
			// intent-based flow, no line item is built for it.
			skipped = append(skipped, SkippedLine{Index: i, Reason: "pre-computed amount lines are not supported by the session flow"})
			continue
		}
		if reason := validateLine(line); reason != "" {
			skipped = append(skipped, SkippedLine{Index: i, Reason: reason})
			continue
		}

		idx := len(items)
		items = append(items, stripe.SessionLineItem{
			Name:       line.Name,
			UnitAmount: toMinorUnits(*line.Price),
			Quantity:   line.Quantity,
			Currency:   currency,
		})
		metadata[fmt.Sprintf("item_%d_sku", idx)] = line.ID
		metadata[fmt.Sprintf("item_%d_quantity", idx)] = strconv.Itoa(line.Quantity)
		validLines = append(validLines, line)
	}

	return items, metadata, skipped, validLines
}

func validateLine(line CheckoutLine) string {
	switch {
	case line.ID == "":
		return "missing id"
	case line.Name == "":
		return "missing name"
	case line.Price == nil:
		return "missing price"
	case line.Quantity <= 0:
		return "missing or non-positive quantity"
	}
	return ""
}

// toMinorUnits converts a decimal price to cents.
func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// record writes the audit row for a created session. Recording is best
// effort: the session already exists at Stripe and the caller must still
// get its identifier, so failures are logged, not returned.
func (s *SessionService) record(ctx context.Context, cartID, sessionID, comments string, items []stripe.SessionLineItem, lines []CheckoutLine) {
	if s.sessions == nil {
		return
	}

	var total int64
	for _, item := range items {
		total += item.UnitAmount * int64(item.Quantity)
	}

	itemsJSON, err := json.Marshal(lines)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal session lines")
		return
	}

	err = s.sessions.CreateSession(ctx, &repository.SessionRecord{
		ID:              uuid.New(),
		StripeSessionID: sessionID,
		CartID:          cartID,
		AmountTotal:     total,
		Currency:        currency,
		Comments:        comments,
		Status:          repository.StatusCreated,
		Items:           itemsJSON,
	})
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to record checkout session")
	}
}
