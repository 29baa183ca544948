package commission

import "github.com/go-chi/chi/v5"

// MountRoutes registers commission routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/commission-type", func(r chi.Router) {
		r.Post("/", h.createType)
		r.Get("/", h.listTypes)
		r.Get("/{id}", h.showType)
	})
	r.Route("/commission-assignment", func(r chi.Router) {
		r.Post("/", h.createAssignment)
		r.Get("/", h.listAssignments)
	})
	r.Route("/commission-payment", func(r chi.Router) {
		r.Post("/compute", h.compute)
		r.Get("/", h.listPayments)
		r.Get("/{id}", h.showPayment)
		r.Post("/{id}/mark-paid", h.markPaid)
	})
}
