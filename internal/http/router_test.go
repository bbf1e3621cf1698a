package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/checkout"
	"github.com/ricardo118/stripe-checkout/internal/event"
	"github.com/ricardo118/stripe-checkout/internal/repository"
	"github.com/ricardo118/stripe-checkout/internal/storage"
	"github.com/ricardo118/stripe-checkout/internal/stripe"
)

type fakeSessionCreator struct {
	calls   int
	params  stripe.SessionParams
	session *stripe.Session
	err     error
}

func (f *fakeSessionCreator) CreateSession(ctx context.Context, params stripe.SessionParams) (*stripe.Session, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeSessionStore struct {
	created   []*repository.SessionRecord
	completed []string
	getErr    error
	markErr   error
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, record *repository.SessionRecord) error {
	f.created = append(f.created, record)
	return nil
}

func (f *fakeSessionStore) GetByStripeSessionID(ctx context.Context, stripeSessionID string) (*repository.SessionRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionStore) MarkCompleted(ctx context.Context, stripeSessionID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.completed = append(f.completed, stripeSessionID)
	return nil
}

type testEnv struct {
	router   *chi.Mux
	provider *fakeSessionCreator
	sessions *fakeSessionStore
	kv       storage.KeyValueStore
	manager  *cart.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv := storage.NewMemoryStore()
	provider := &fakeSessionCreator{session: &stripe.Session{ID: "cs_test_1"}}
	sessions := &fakeSessionStore{}
	logger := zerolog.Nop()

	service := checkout.NewSessionService(provider, sessions, "https://shop.example/ok", "https://shop.example/cancel", logger)
	manager := cart.NewManager(kv, event.NewBus(), logger)

	router := NewRouter(RouterConfig{
		Manager:        manager,
		SessionService: service,
		Sessions:       sessions,
		RequestTimeout: 5 * time.Second,
		ClearDelay:     0,
		Logger:         logger,
	})

	return &testEnv{
		router:   router,
		provider: provider,
		sessions: sessions,
		kv:       kv,
		manager:  manager,
	}
}

func (e *testEnv) do(t *testing.T, method, target, cartID string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if cartID != "" {
		req.Header.Set(CartIDHeader, cartID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponseDTO {
	t.Helper()
	var resp CartResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MintsCartID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/cart/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	minted := rec.Header().Get(CartIDHeader)
	assert.NotEmpty(t, minted, "a request without a cart id gets one minted")
	assert.Equal(t, minted, decodeCart(t, rec).CartID)
}

func TestRouter_EchoesCartID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/cart/", "cart-42", nil)

	assert.Equal(t, "cart-42", rec.Header().Get(CartIDHeader))
	assert.Equal(t, "cart-42", decodeCart(t, rec).CartID)
}
