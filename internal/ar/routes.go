package ar

import "github.com/go-chi/chi/v5"

// MountRoutes registers invoice routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoice", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Post("/{id}/payment", h.recordPayment)
		r.Post("/{id}/void", h.void)
	})
}
