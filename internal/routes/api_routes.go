package routes

import (
	"github.com/go-chi/chi/v5"

	"airtracker/panel/internal/api"
	"airtracker/panel/internal/middleware"
)

// RegisterAPIRoutes registers the read-only status endpoints under /api/v1.
// The frame endpoint re-encodes a PNG per request and gets its own limiter.
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, frameLimiter *middleware.RateLimiter) {
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/state", handlers.StateHandler())
		v1.Get("/assets", handlers.AssetsHandler())
		v1.Get("/display", handlers.DisplayHandler())

		v1.Group(func(frame chi.Router) {
			frame.Use(frameLimiter.Middleware)
			frame.Get("/frame.png", handlers.FrameHandler())
		})
	})
}
