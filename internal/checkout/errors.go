package checkout

import "errors"

// SanitizeError maps a session-creation failure to the message a
// customer may see. Raw provider and transport errors can leak account
// or infrastructure detail, so everything except the empty-cart case
// collapses to a generic message; callers log the original error.
func SanitizeError(err error) string {
	if errors.Is(err, ErrEmptyCart) {
		return ErrEmptyCart.Error()
	}
	return "checkout session could not be created"
}
