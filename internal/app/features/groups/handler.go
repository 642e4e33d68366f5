// internal/app/features/groups/handler.go
package groups

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/groups"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/authz"
	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
)

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Domains *domainstore.Store
	Groups  *groupstore.Store
	Members *memberstore.Store
	Log     *zap.Logger
}

func NewHandler(domains *domainstore.Store, groups *groupstore.Store, members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Domains: domains, Groups: groups, Members: members, Log: logger}
}

// domainForAdmin resolves the {id} route param to a domain the caller
// administers. It writes the error response itself and returns ok=false
// when the caller should not proceed.
func (h *Handler) domainForAdmin(w http.ResponseWriter, r *http.Request) (models.Domain, bool) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return models.Domain{}, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return models.Domain{}, false
	}

	dom, err := h.Domains.GetByIDForUser(r.Context(), id, ident.UID)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return models.Domain{}, false
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return models.Domain{}, false
	}

	if !authz.IsOwner(ident, dom) && !authz.IsAdministrator(ident, dom.ID.Hex()) {
		webutil.Unauthorized(w)
		return models.Domain{}, false
	}
	return dom, true
}

// HandleList returns the domain's groups. Any member may list them.
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

	list, err := h.Groups.ListForDomain(r.Context(), id)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, list)
}

// HandleGet returns one group. Any member may read it.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	g, err := h.Groups.Get(r.Context(), id, chi.URLParam(r, "groupID"))
	if errors.Is(err, groupstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("get group failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, g)
}

type groupRequest struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// HandleCreate adds a custom group. Administrators only; names matching
// a built-in group are rejected.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	ident, _ := auth.CurrentIdentity(r)

	var req groupRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		webutil.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if models.IsReservedGroupName(req.Name) {
		webutil.Error(w, http.StatusForbidden, "group name is reserved")
		return
	}

	// The creating administrator starts as the group's first member.
	g, err := h.Groups.Create(r.Context(), models.Group{
		ID:       uuid.NewString(),
		DomainID: dom.ID,
		Name:     req.Name,
		Members:  []string{ident.UID},
	})
	if errors.Is(err, groupstore.ErrDuplicateGroup) {
		webutil.Error(w, http.StatusForbidden, "a group with this name already exists")
		return
	}
	if err != nil {
		h.Log.Error("create group failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusCreated, g)
}

// HandleRename changes a custom group's name. The request carries the
// version the client last read; a stale version gets 409.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")

	var req groupRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		webutil.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if models.IsReservedGroupName(req.Name) {
		webutil.Error(w, http.StatusForbidden, "group name is reserved")
		return
	}

	g, err := h.Groups.Get(r.Context(), dom.ID, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("get group failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if g.Builtin {
		webutil.Error(w, http.StatusForbidden, "built-in groups cannot be renamed")
		return
	}

	err = h.Groups.Rename(r.Context(), dom.ID, groupID, req.Name, req.Version)
	switch {
	case errors.Is(err, groupstore.ErrVersionConflict):
		webutil.Error(w, http.StatusConflict, "group was modified concurrently")
	case errors.Is(err, groupstore.ErrNotFound):
		webutil.Error(w, http.StatusNotFound, "group not found")
	case err != nil:
		h.Log.Error("rename group failed", zap.Error(err))
		webutil.ServerError(w)
	default:
		webutil.NoContent(w)
	}
}

// HandleDelete removes a custom group and strips its id from every
// member record in the domain.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")

	g, err := h.Groups.Get(r.Context(), dom.ID, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("get group failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if g.Builtin {
		webutil.Error(w, http.StatusForbidden, "built-in groups cannot be deleted")
		return
	}

	if err := h.Groups.Delete(r.Context(), dom.ID, groupID); err != nil {
		h.Log.Error("delete group failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if err := h.Members.PullGroup(r.Context(), dom.ID, groupID); err != nil {
		h.Log.Error("strip group from members failed",
			zap.String("group_id", groupID), zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.NoContent(w)
}
