// internal/app/features/members/handler.go
package members

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/policy/domainpolicy"
	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/groups"
	"github.com/teambase/teambase/internal/app/store/identities"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
)

// Handler is the shared dependency container for the members feature.
type Handler struct {
	DB         *mongo.Database
	Domains    *domainstore.Store
	Groups     *groupstore.Store
	Members    *memberstore.Store
	Identities *identitystore.Store
	Subs       *subscriptionstore.Store
	Billing    billing.Provider
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, domains *domainstore.Store, groups *groupstore.Store,
	members *memberstore.Store, identities *identitystore.Store,
	subs *subscriptionstore.Store, provider billing.Provider, logger *zap.Logger) *Handler {
	return &Handler{
		DB: db, Domains: domains, Groups: groups, Members: members,
		Identities: identities, Subs: subs, Billing: provider, Log: logger,
	}
}

// domainForAdmin resolves {id} to a domain the caller administers,
// re-checked against the member records. Writes the error response and
// returns ok=false when the caller should not proceed.
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

	allowed, err := domainpolicy.CanUpdateDomain(r.Context(), h.DB, ident, dom)
	if err != nil {
		h.Log.Error("member policy check failed", zap.Error(err))
		webutil.ServerError(w)
		return models.Domain{}, false
	}
	if !allowed {
		webutil.Unauthorized(w)
		return models.Domain{}, false
	}
	return dom, true
}

// HandleList returns the domain's member records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	list, err := h.Members.ListForDomain(r.Context(), dom.ID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, list)
}

// HandleGet returns one member record.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	m, err := h.Members.Get(r.Context(), dom.ID, chi.URLParam(r, "memberID"))
	if errors.Is(err, memberstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		h.Log.Error("get member failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, m)
}

type updateMemberRequest struct {
	MemberOf *[]string `json:"memberOf"`
	Status   *string   `json:"status"`
	Version  int64     `json:"version"`
}

// HandleUpdate patches a member's group list or status. The owner can
// never lose the Administrators group. Group and identity records are
// kept in step with the member's group list.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "memberID")

	mem, err := h.Members.Get(r.Context(), dom.ID, memberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		h.Log.Error("get member failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	var req updateMemberRequest
	if !webutil.Decode(w, r, &req) {
		return
	}

	if req.MemberOf != nil && mem.UID != nil && *mem.UID == dom.Owner {
		if !contains(*req.MemberOf, models.RoleAdministrators) {
			webutil.Error(w, http.StatusForbidden,
				"the team owner cannot leave the Administrators group")
			return
		}
	}

	err = h.Members.Update(r.Context(), dom.ID, memberID, memberstore.Patch{
		MemberOf: req.MemberOf,
		Status:   req.Status,
	}, req.Version)
	switch {
	case errors.Is(err, memberstore.ErrVersionConflict):
		webutil.Error(w, http.StatusConflict, "member was modified concurrently")
		return
	case errors.Is(err, memberstore.ErrNotFound):
		webutil.Error(w, http.StatusNotFound, "member not found")
		return
	case err != nil:
		h.Log.Error("update member failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	if req.MemberOf != nil && mem.UID != nil {
		if err := h.syncMembership(r, dom, *mem.UID, *req.MemberOf); err != nil {
			h.Log.Error("sync membership failed",
				zap.String("uid", *mem.UID), zap.Error(err))
			webutil.ServerError(w)
			return
		}
	}
	webutil.NoContent(w)
}

// syncMembership rewrites the group member arrays and identity claims to
// match a member's new group list.
func (h *Handler) syncMembership(r *http.Request, dom models.Domain, uid string, memberOf []string) error {
	if err := h.Groups.RemoveMemberFromAll(r.Context(), dom.ID, uid); err != nil {
		return err
	}
	for _, groupID := range memberOf {
		if err := h.Groups.AddMember(r.Context(), dom.ID, groupID, uid); err != nil &&
			!errors.Is(err, groupstore.ErrNotFound) {
			return err
		}
	}
	return h.Identities.SetDomainRoles(r.Context(), uid, dom.ID.Hex(), memberOf)
}

// HandleDelete removes a member from the domain and decrements the seat
// count on the domain's subscription. The owner cannot be removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	dom, ok := h.domainForAdmin(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "memberID")

	mem, err := h.Members.Get(r.Context(), dom.ID, memberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		h.Log.Error("get member failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if mem.UID != nil && *mem.UID == dom.Owner {
		webutil.Error(w, http.StatusForbidden, "the team owner cannot be removed")
		return
	}

	if err := h.Members.Delete(r.Context(), dom.ID, memberID); err != nil {
		h.Log.Error("delete member failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	if mem.UID != nil {
		uid := *mem.UID
		if err := h.Groups.RemoveMemberFromAll(r.Context(), dom.ID, uid); err != nil {
			h.Log.Error("strip member from groups failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		if err := h.Domains.RemoveUser(r.Context(), dom.ID, uid); err != nil {
			h.Log.Error("strip member from domain failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		if err := h.Identities.RemoveDomain(r.Context(), uid, dom.ID.Hex()); err != nil {
			h.Log.Warn("strip domain claim failed",
				zap.String("uid", uid), zap.Error(err))
		}
	}

	if err := h.decrementSeats(r, dom); err != nil {
		h.Log.Warn("decrement seats failed",
			zap.String("domain_id", dom.ID.Hex()), zap.Error(err))
	}
	webutil.NoContent(w)
}

// decrementSeats drops the subscription quantity by one, never below one.
func (h *Handler) decrementSeats(r *http.Request, dom models.Domain) error {
	rec, err := h.Subs.Get(r.Context(), dom.ID)
	if errors.Is(err, subscriptionstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.SubID == "" {
		return nil
	}

	qty := rec.Visible.Quantity - 1
	if qty < 1 {
		qty = 1
	}
	sub, err := h.Billing.SetQuantity(r.Context(), rec.SubID, qty)
	if err != nil {
		return err
	}

	rec.Visible = billing.VisibleInfo(sub)
	rec.Raw = sub.Raw
	if err := h.Subs.Save(r.Context(), rec); err != nil {
		return err
	}
	return h.Domains.SetSubscriptionInfo(r.Context(), dom.ID, rec.Visible)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
