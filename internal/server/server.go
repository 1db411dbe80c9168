// Package server is the HTTP layer: it translates requests into store,
// checkout and webhook operations and maps domain errors onto status codes.
// It holds no business logic.
package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/devansh-07/Sure-Shop/internal/checkout"
	"github.com/devansh-07/Sure-Shop/internal/webhook"
)

type Server struct {
	db         *sql.DB
	broker     *checkout.Broker
	reconciler *webhook.Reconciler
	logger     zerolog.Logger
	router     chi.Router
}

func New(db *sql.DB, broker *checkout.Broker, reconciler *webhook.Reconciler, logger zerolog.Logger) *Server {
	s := &Server{
		db:         db,
		broker:     broker,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/items", s.handleListItems)
	r.Get("/items/{slug}", s.handleGetItem)

	// Signature-verified; no user auth.
	r.Post("/webhook/payment", s.handleWebhook)

	// Authenticated routes: upstream auth supplies X-User-ID.
	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/cart", s.handleGetCart)
		r.Post("/cart/add/{slug}", s.handleAddToCart)
		r.Post("/cart/remove/{slug}", s.handleRemoveFromCart)
		r.Post("/cart/decrement/{slug}", s.handleDecrementCart)
		r.Post("/checkout", s.handleCheckout)
		r.Post("/checkout-session", s.handleCheckoutSession)
		r.Get("/orders", s.handleListOrders)
		r.Post("/contact", s.handleContact)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
