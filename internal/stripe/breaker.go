package stripe

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps a SessionCreator with a circuit breaker. The endpoint
// never retries a failed session creation, so the breaker's only job is
// to fail fast while Stripe is unreachable instead of tying up request
// goroutines on a dead upstream.
type Breaker struct {
	inner SessionCreator
	cb    *gobreaker.CircuitBreaker[*Session]
}

func NewBreaker(inner SessionCreator) *Breaker {
	settings := gobreaker.Settings{
		Name:    "stripe-checkout-sessions",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*Session](settings),
	}
}

func (b *Breaker) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	return b.cb.Execute(func() (*Session, error) {
		return b.inner.CreateSession(ctx, params)
	})
}
