package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/launchdeck/launchdeck/internal/handler"
	"github.com/launchdeck/launchdeck/internal/middleware"
)

// RouterConfig holds what the router mounts.
type RouterConfig struct {
	API    *handler.Handler
	Health *handler.HealthHandler
	// Metrics serves /metrics when set.
	Metrics        http.Handler
	MaxRequestBody int64
	Logger         *slog.Logger
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBody))
		r.Use(middleware.Identity)

		r.Route("/launches", func(r chi.Router) {
			r.Get("/", cfg.API.ListLaunches)
			r.Get("/{id}", cfg.API.GetLaunch)
		})

		r.Get("/me", cfg.API.Me)
		r.Post("/login", cfg.API.Login)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", cfg.API.BookTrips)
			r.Delete("/{launchId}", cfg.API.CancelTrip)
		})
	})

	r.NotFound(cfg.API.NotFound)
	r.MethodNotAllowed(cfg.API.MethodNotAllowed)

	return r
}
