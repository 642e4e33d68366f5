// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /domains/{id}/members.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Get("/{memberID}", h.HandleGet)
	r.Put("/{memberID}", h.HandleUpdate)
	r.Delete("/{memberID}", h.HandleDelete)
	return r
}
