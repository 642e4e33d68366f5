// internal/app/features/paymentmethods/routes.go
package paymentmethods

import "github.com/go-chi/chi/v5"

// Routes returns the /payment-methods subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleAttach)
	r.Put("/{pmID}", h.HandleUpdate)
	return r
}
