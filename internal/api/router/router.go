package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/event-sms-broadcaster/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/event-sms-broadcaster/internal/http/middleware"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Broadcasts         *handlers.BroadcastHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// OperatorJWTSecret guards /broadcasts when set.
	OperatorJWTSecret string

	// RateLimiter applies to /broadcasts only. Nil disables it.
	RateLimiter *httpmiddleware.ClientLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Broadcasts != nil {
		r.Group(func(send chi.Router) {
			if cfg.RateLimiter != nil {
				send.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			if cfg.OperatorJWTSecret != "" {
				send.Use(httpmiddleware.OperatorJWT(cfg.OperatorJWTSecret))
			}
			send.Post("/broadcasts", cfg.Broadcasts.Create)
		})
	}

	return r
}
