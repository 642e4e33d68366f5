// internal/app/features/setupintents/routes.go
package setupintents

import "github.com/go-chi/chi/v5"

// Routes returns the /setup-intents subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	return r
}
