// internal/app/features/identityevents/handler.go
package identityevents

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/system/lifecycle"
	"github.com/teambase/teambase/internal/app/system/timeouts"
	"github.com/teambase/teambase/internal/app/system/webutil"
)

// Event types delivered by the identity provider.
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// SecretHeader authenticates identity-provider callbacks. Not part of
// the client API.
const SecretHeader = "X-Identity-Secret"

// DefaultTeamDisplayName labels the domain provisioned for every new
// account before the user picks a real name.
const DefaultTeamDisplayName = "Your Team"

// Handler receives account lifecycle events from the identity provider.
type Handler struct {
	Lifecycle *lifecycle.Manager
	Secret    string
	Log       *zap.Logger
}

func NewHandler(lc *lifecycle.Manager, secret string, logger *zap.Logger) *Handler {
	return &Handler{Lifecycle: lc, Secret: secret, Log: logger}
}

type eventRequest struct {
	Type        string `json:"type"`
	UID         string `json:"uid"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Region      string `json:"region"`
	VATNumber   string `json:"vatNumber"`
}

// HandleEvent provisions a starter domain and billing customer for new
// accounts, and tears everything down for deleted ones.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(SecretHeader)
	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		webutil.Unauthorized(w)
		return
	}

	var req eventRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.UID == "" {
		webutil.Error(w, http.StatusBadRequest, "uid is required")
		return
	}

	switch req.Type {
	case EventUserCreated:
		if req.Email == "" {
			webutil.Error(w, http.StatusBadRequest, "email is required")
			return
		}
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user provisioning")
		defer cancel()
		if err := h.Lifecycle.ProvisionUser(ctx, req.UID, req.Email,
			req.CountryCode, req.Region, req.VATNumber); err != nil {
			h.Log.Error("provision user failed",
				zap.String("uid", req.UID), zap.Error(err))
			webutil.ServerError(w)
			return
		}
		// Starter domain with a placeholder unique name.
		name := strings.ReplaceAll(uuid.NewString(), "-", "")
		if _, err := h.Lifecycle.ProvisionDomain(ctx, req.UID, req.Email,
			name, DefaultTeamDisplayName); err != nil {
			h.Log.Error("provision starter domain failed",
				zap.String("uid", req.UID), zap.Error(err))
			webutil.ServerError(w)
			return
		}
		webutil.NoContent(w)

	case EventUserDeleted:
		// Teardown cancels subscriptions and deletes across collections;
		// give it the full batch window.
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "user teardown")
		defer cancel()
		if err := h.Lifecycle.TeardownUser(ctx, req.UID); err != nil {
			h.Log.Error("teardown user failed",
				zap.String("uid", req.UID), zap.Error(err))
			webutil.ServerError(w)
			return
		}
		webutil.NoContent(w)

	default:
		webutil.Error(w, http.StatusBadRequest, "unknown event type")
	}
}
