// internal/app/features/messages/handler.go
package messages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/messages"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/webutil"
)

// Handler serves a member's in-app messages.
type Handler struct {
	Domains  *domainstore.Store
	Messages *messagestore.Store
	Log      *zap.Logger
}

func NewHandler(domains *domainstore.Store, messages *messagestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Domains: domains, Messages: messages, Log: logger}
}

// HandleList returns the caller's messages within the domain.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}
	if _, err := h.Domains.GetByIDForUser(r.Context(), id, ident.UID); err != nil {
		if errors.Is(err, domainstore.ErrNotFound) {
			webutil.Error(w, http.StatusNotFound, "domain not found")
			return
		}
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	list, err := h.Messages.ListForUser(r.Context(), id, ident.UID)
	if err != nil {
		h.Log.Error("list messages failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, list)
}
