// internal/app/features/domains/routes.go
package domains

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /domains subrouter. The per-domain subresources
// (accept, groups, members, messages) are passed in so every domain-scoped
// route hangs off the same {id} segment. The bearer middleware is applied
// by the caller.
func Routes(h *Handler, accept http.HandlerFunc, groups, members, messages chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/check/{name}", h.HandleCheckName)
	r.Route("/{id}", func(sr chi.Router) {
		sr.Get("/", h.HandleGet)
		sr.Put("/", h.HandleUpdate)
		sr.Post("/accept", accept)
		sr.Mount("/groups", groups)
		sr.Mount("/members", members)
		sr.Mount("/messages", messages)
	})
	return r
}
