package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ogdenik/bankcore/internal/adapter/http/handler"
	"github.com/ogdenik/bankcore/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	TransferHandler *handler.TransferHandler
	UserHandler     *handler.UserHandler
	HealthHandler   *handler.HealthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	Logger          zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.Wrap)

			r.Post("/transfers", cfg.TransferHandler.Create)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/{id}", cfg.TransferHandler.GetAccount)
				r.Get("/{id}/ledger", cfg.TransferHandler.ListLedger)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", cfg.UserHandler.Me)
				r.Get("/search", cfg.UserHandler.Search)

				r.Post("/me/emails", cfg.UserHandler.AddEmail)
				r.Put("/me/emails/{id}", cfg.UserHandler.UpdateEmail)
				r.Delete("/me/emails/{id}", cfg.UserHandler.DeleteEmail)

				r.Post("/me/phones", cfg.UserHandler.AddPhone)
				r.Put("/me/phones/{id}", cfg.UserHandler.UpdatePhone)
				r.Delete("/me/phones/{id}", cfg.UserHandler.DeletePhone)
			})
		})
	})

	return r
}
