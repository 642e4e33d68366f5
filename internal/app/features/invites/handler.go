// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teambase/teambase/internal/app/policy/domainpolicy"
	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/groups"
	"github.com/teambase/teambase/internal/app/store/identities"
	"github.com/teambase/teambase/internal/app/store/invitations"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/mailer"
	"github.com/teambase/teambase/internal/app/system/timeouts"
	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
)

// Handler is the shared dependency container for the invites feature.
type Handler struct {
	DB         *mongo.Database
	Domains    *domainstore.Store
	Groups     *groupstore.Store
	Members    *memberstore.Store
	Invites    *invitationstore.Store
	Identities *identitystore.Store
	Mailer     mailer.Sender
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, domains *domainstore.Store, groups *groupstore.Store,
	members *memberstore.Store, invites *invitationstore.Store,
	identities *identitystore.Store, sender mailer.Sender, logger *zap.Logger) *Handler {
	return &Handler{
		DB: db, Domains: domains, Groups: groups, Members: members,
		Invites: invites, Identities: identities, Mailer: sender, Log: logger,
	}
}

type sendInvitesRequest struct {
	Domain     string   `json:"domain"`
	DomainName string   `json:"domainName"`
	Inviter    string   `json:"inviter"`
	Invitees   []string `json:"invitees"`
}

// HandleSend creates one invitation per invitee and mails them all
// concurrently. The caller must administer the domain on record, not
// merely by claim.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}

	var req sendInvitesRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.Domain == "" || req.Inviter == "" || req.DomainName == "" || len(req.Invitees) == 0 {
		webutil.Error(w, http.StatusBadRequest, "domain, domainName, inviter and invitees are required")
		return
	}
	domainID, err := primitive.ObjectIDFromHex(req.Domain)
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "invitation batch send")
	defer cancel()

	dom, err := h.Domains.GetByIDForUser(ctx, domainID, ident.UID)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	allowed, err := domainpolicy.CanSendInvites(ctx, h.DB, ident, dom)
	if err != nil {
		h.Log.Error("invite policy check failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if !allowed {
		webutil.Unauthorized(w)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	created := make([]models.Invitation, len(req.Invitees))
	for i, invitee := range req.Invitees {
		i, invitee := i, strings.TrimSpace(invitee)
		g.Go(func() error {
			inv, err := h.Invites.Create(ctx, models.Invitation{
				ID:        uuid.NewString(),
				Name:      req.DomainName,
				Invitee:   invitee,
				Inviter:   req.Inviter,
				Domain:    dom.ID.Hex(),
				CreatedBy: ident.UID,
			})
			if err != nil {
				return err
			}
			created[i] = inv
			return h.Mailer.SendInvite(ctx, mailer.InviteEmail{
				InviteID: inv.ID,
				Invitee:  invitee,
				Inviter:  req.Inviter,
				TeamName: req.DomainName,
			})
		})
	}
	if err := g.Wait(); err != nil {
		h.Log.Error("send invites failed",
			zap.String("domain_id", dom.ID.Hex()), zap.Error(err))
		webutil.ServerError(w)
		return
	}

	webutil.JSON(w, http.StatusCreated, created)
}

type acceptRequest struct {
	InviteID string `json:"inviteId"`
}

// HandleAccept joins the caller to the domain named by a pending
// invitation. The status flip is an atomic compare-and-set, so a
// replayed accept fails without duplicating membership.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}
	domainID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}

	var req acceptRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.InviteID == "" {
		webutil.Error(w, http.StatusBadRequest, "inviteId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	inv, err := h.Invites.Get(ctx, req.InviteID)
	if errors.Is(err, invitationstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "invitation not found")
		return
	}
	if err != nil {
		h.Log.Error("get invitation failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if inv.Domain != domainID.Hex() {
		webutil.Error(w, http.StatusNotFound, "invitation not found")
		return
	}

	inv, err = h.Invites.Accept(ctx, req.InviteID, ident.UID)
	if errors.Is(err, invitationstore.ErrNotPending) {
		webutil.Unauthorized(w)
		return
	}
	if err != nil {
		h.Log.Error("accept invitation failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	if err := h.joinDomain(ctx, domainID, ident.UID, inv.Invitee); err != nil {
		h.Log.Error("join domain failed",
			zap.String("uid", ident.UID),
			zap.String("domain_id", domainID.Hex()),
			zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, inv)
}

// joinDomain adds uid to the domain's user list, member records, Users
// group, and identity claims.
func (h *Handler) joinDomain(ctx context.Context, domainID primitive.ObjectID, uid, email string) error {
	if err := h.Domains.AddUser(ctx, domainID, uid); err != nil {
		return err
	}

	member := uid
	if _, err := h.Members.Add(ctx, models.Member{
		ID:       uuid.NewString(),
		DomainID: domainID,
		UID:      &member,
		Email:    email,
		Status:   models.MemberStatusActive,
		MemberOf: []string{models.RoleBoardUsers},
	}); err != nil && !errors.Is(err, memberstore.ErrDuplicateMember) {
		return err
	}

	if err := h.Groups.AddMember(ctx, domainID, models.RoleBoardUsers, uid); err != nil {
		return err
	}

	if err := h.Identities.Upsert(ctx, uid, email); err != nil {
		return err
	}
	return h.Identities.SetDomainRoles(ctx, uid, domainID.Hex(), []string{models.RoleBoardUsers})
}
