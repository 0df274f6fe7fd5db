package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the agent's routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Post("/run", h.RunTask)
	r.Get("/read", h.ReadFile)
	r.Get("/health", h.Health)
}
