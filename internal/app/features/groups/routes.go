// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /domains/{id}/groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{groupID}", h.HandleGet)
	r.Put("/{groupID}", h.HandleRename)
	r.Delete("/{groupID}", h.HandleDelete)
	return r
}
