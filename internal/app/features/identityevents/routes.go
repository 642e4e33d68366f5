// internal/app/features/identityevents/routes.go
package identityevents

import "github.com/go-chi/chi/v5"

// Routes returns the /identity-events subrouter. Authenticated by shared
// secret, not bearer tokens.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleEvent)
	return r
}
