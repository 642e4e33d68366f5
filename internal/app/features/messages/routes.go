// internal/app/features/messages/routes.go
package messages

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /domains/{id}/messages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	return r
}
