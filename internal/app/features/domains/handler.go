// internal/app/features/domains/handler.go
package domains

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/policy/domainpolicy"
	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/lifecycle"
	"github.com/teambase/teambase/internal/app/system/webutil"
)

// validDomainName restricts team names to alphanumerics and spaces.
var validDomainName = regexp.MustCompile(`^[0-9a-zA-Z ]+$`)

// Handler is the shared dependency container for the domains feature.
type Handler struct {
	DB        *mongo.Database
	Domains   *domainstore.Store
	Lifecycle *lifecycle.Manager
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, domains *domainstore.Store, lc *lifecycle.Manager, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Domains: domains, Lifecycle: lc, Log: logger}
}

// HandleList returns every domain the caller belongs to.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}

	list, err := h.Domains.ListForUser(r.Context(), ident.UID)
	if err != nil {
		h.Log.Error("list domains failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, list)
}

type createDomainRequest struct {
	Name string `json:"name"`
}

// HandleCreate provisions a new domain owned by the caller.
//
// 406 for a malformed name, 403 when the name is already taken.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}

	var req createDomainRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || !validDomainName.MatchString(req.Name) {
		webutil.Error(w, http.StatusNotAcceptable,
			"domain names can only contain alphanumeric characters and spaces")
		return
	}

	dom, err := h.Lifecycle.ProvisionDomain(r.Context(), ident.UID, ident.Email, req.Name, req.Name)
	if errors.Is(err, domainstore.ErrDuplicateDomain) {
		webutil.Error(w, http.StatusForbidden, "a team with this name already exists")
		return
	}
	if err != nil {
		h.Log.Error("provision domain failed",
			zap.String("uid", ident.UID), zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusCreated, dom)
}

// HandleGet returns one domain. Domains the caller does not belong to
// read as 404.
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

	dom, err := h.Domains.GetByIDForUser(r.Context(), id, ident.UID)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, dom)
}

type updateDomainRequest struct {
	DisplayName string `json:"display_name"`
}

// HandleUpdate changes the domain's display name. Owner or an
// administrator only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	dom, err := h.Domains.GetByIDForUser(r.Context(), id, ident.UID)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	allowed, err := domainpolicy.CanUpdateDomain(r.Context(), h.DB, ident, dom)
	if err != nil {
		h.Log.Error("domain policy check failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if !allowed {
		webutil.Unauthorized(w)
		return
	}

	var req updateDomainRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		webutil.Error(w, http.StatusBadRequest, "display_name is required")
		return
	}

	if err := h.Domains.UpdateDisplayName(r.Context(), id, req.DisplayName); err != nil {
		h.Log.Error("update domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	dom.DisplayName = req.DisplayName
	webutil.JSON(w, http.StatusOK, dom)
}

// HandleCheckName reports whether a team name is already taken.
func (h *Handler) HandleCheckName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || !validDomainName.MatchString(name) {
		webutil.Error(w, http.StatusNotAcceptable,
			"domain names can only contain alphanumeric characters and spaces")
		return
	}

	exists, err := h.Domains.ExistsByNameCI(r.Context(), name)
	if err != nil {
		h.Log.Error("check domain name failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
