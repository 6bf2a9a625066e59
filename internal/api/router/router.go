// Package router assembles the HTTP surface of the reminder platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/txtalert/platform/internal/http/handlers"
	httpmiddleware "github.com/txtalert/platform/internal/http/middleware"
	"github.com/txtalert/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ImportsHandler  *handlers.ImportsHandler
	PatientsHandler *handlers.PatientsHandler
	StatsHandler    *handlers.StatsHandler
	MetricsHandler  http.Handler
	AdminAuthSecret string

	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints behind the HMAC JWT.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.RateLimit(5, 10))
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.ImportsHandler != nil {
			admin.Post("/imports/visits", cfg.ImportsHandler.ImportVisits)
			admin.Post("/imports/patients", cfg.ImportsHandler.ImportPatients)
		}
		if cfg.PatientsHandler != nil {
			admin.Get("/patients/{te_id}", cfg.PatientsHandler.Get)
		}
		if cfg.StatsHandler != nil {
			admin.Get("/stats", cfg.StatsHandler.Get)
		}
	})

	return r
}
