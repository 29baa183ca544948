package shares

import "github.com/go-chi/chi/v5"

// MountRoutes registers marketer share routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/marketer-share", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Post("/{id}/mark-paid", h.markPaid)
	})
}
