// internal/app/features/subscriptions/routes.go
package subscriptions

import "github.com/go-chi/chi/v5"

// Routes returns the /subscriptions subrouter. {id} is the domain id;
// subscription records are keyed by domain.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleCancel)
	return r
}
