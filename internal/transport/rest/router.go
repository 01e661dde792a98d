package rest

import (
	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/json-auditor/internal/transport/middleware"
)

// Routes mounts the audit and health endpoints on r. write wraps the
// POST /audit handler only; pass nil for none.
func Routes(r chi.Router, audit *AuditHandler, health *HealthHandler, write middleware.Middleware) {
	r.Get("/live", health.Live)
	r.Get("/ready", health.Ready)
	r.Get("/health", health.Health)

	r.Route("/audit", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if write != nil {
				r.Use(write)
			}
			r.Post("/", audit.Submit)
		})
		r.Get("/", audit.Query)
		r.Get("/all", audit.QueryAll)
	})
}
