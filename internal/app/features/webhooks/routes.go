// internal/app/features/webhooks/routes.go
package webhooks

import "github.com/go-chi/chi/v5"

// Routes returns the /stripe-webhook subrouter. No bearer auth; the
// request is authenticated by its signature.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleStripeEvent)
	return r
}
