// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// Routes returns the /invites subrouter. The accept endpoint lives under
// /domains/{id}/accept and is mounted by the bootstrap router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSend)
	return r
}
