package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"airtracker/panel/internal/api"
	"airtracker/panel/internal/logging"
	"airtracker/panel/internal/metrics"
	"airtracker/panel/internal/middleware"
)

// Options tune the status server.
type Options struct {
	Debug       bool // mount verbose request logging
	FrameRateHz float64
	FrameBurst  int
}

func RegisterRoutes(deps *api.Dependencies, metricsReg *metrics.MetricsRegistry, opts Options, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	if opts.Debug {
		r.Use(middleware.Logging)
	}
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Frame-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(deps.Checks, upSince))
	r.Method(http.MethodGet, "/metrics", metricsReg.Handler())

	handlers := api.NewHandlers(deps)
	RegisterAPIRoutes(r, handlers, middleware.NewRateLimiter(opts.FrameRateHz, opts.FrameBurst))

	logging.Info("Router initialized", "debug_logging", opts.Debug)
	return r
}
