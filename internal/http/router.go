package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/checkout"
	"github.com/ricardo118/stripe-checkout/internal/repository"
)

type RouterConfig struct {
	Manager        *cart.Manager
	SessionService *checkout.SessionService
	Sessions       repository.SessionStore // may be nil
	RequestTimeout time.Duration
	ClearDelay     time.Duration
	Logger         zerolog.Logger
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	cartHandler := NewCartHandler(cfg.Manager, cfg.RequestTimeout)
	sessionHandler := NewSessionHandler(cfg.SessionService, cfg.RequestTimeout, cfg.Logger)
	checkoutHandler := NewCheckoutHandler(cfg.Manager, cfg.SessionService, cfg.RequestTimeout, cfg.Logger)
	returnHandler := NewReturnHandler(cfg.Manager, cfg.Sessions, cfg.ClearDelay, cfg.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(CartIDMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{sku}", cartHandler.SetQuantity)
		r.Post("/items/{sku}/increase", cartHandler.IncreaseQuantity)
		r.Post("/items/{sku}/decrease", cartHandler.DecreaseQuantity)
		r.Delete("/items/{sku}", cartHandler.RemoveItem)
		r.Post("/checkout", checkoutHandler.GoToCheckout)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/session", sessionHandler.CreateSession)
		r.Get("/return", returnHandler.Return)
	})

	return r
}
