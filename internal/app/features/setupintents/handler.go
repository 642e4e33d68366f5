// internal/app/features/setupintents/handler.go
package setupintents

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/authz"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/timeouts"
	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
)

// Handler issues the intent a client needs before confirming a card,
// picking the intent type from the subscription's state.
type Handler struct {
	Domains *domainstore.Store
	Subs    *subscriptionstore.Store
	Billing billing.Provider
	Plans   billing.Config
	Log     *zap.Logger
}

func NewHandler(domains *domainstore.Store, subs *subscriptionstore.Store,
	provider billing.Provider, plans billing.Config, logger *zap.Logger) *Handler {
	return &Handler{Domains: domains, Subs: subs, Billing: provider, Plans: plans, Log: logger}
}

type createRequest struct {
	Domain          string `json:"domain"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type intentResponse struct {
	ClientSecret string                  `json:"client_secret,omitempty"`
	Subscription models.SubscriptionInfo `json:"subscription"`
}

// HandleCreate returns the client secret the browser needs to confirm a
// card. Healthy subscriptions get a SetupIntent; delinquent ones get a
// PaymentIntent for the outstanding balance; a canceled subscription is
// replaced outright using the customer's stored jurisdiction.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return
	}

	var req createRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.Domain == "" {
		webutil.Error(w, http.StatusBadRequest, "domain is required")
		return
	}
	domainID, err := primitive.ObjectIDFromHex(req.Domain)
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	dom, err := h.Domains.GetByID(ctx, domainID)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if !authz.IsOwner(ident, dom) {
		webutil.Unauthorized(w)
		return
	}

	rec, err := h.Subs.Get(ctx, dom.ID)
	if errors.Is(err, subscriptionstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		h.Log.Error("get subscription record failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	sub, err := h.Billing.GetSubscription(ctx, rec.SubID)
	if err != nil {
		h.Log.Error("fetch subscription failed",
			zap.String("sub_id", rec.SubID), zap.Error(err))
		webutil.ServerError(w)
		return
	}

	switch sub.Status {
	case billing.StatusCanceled:
		h.resubscribe(ctx, w, dom, rec, sub)

	case billing.StatusUnpaid, billing.StatusPastDue,
		billing.StatusIncomplete, billing.StatusIncompleteExpired:
		intent, err := h.Billing.CreatePaymentIntent(ctx, billing.PaymentIntentParams{
			CustomerID:      rec.CustomerID,
			PaymentMethodID: req.PaymentMethodID,
			Description:     "Outstanding balance for " + dom.DisplayName,
			Amount:          billing.PaymentAmount(sub),
			Currency:        sub.Currency,
		})
		if err != nil {
			h.Log.Error("create payment intent failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		webutil.JSON(w, http.StatusOK, intentResponse{
			ClientSecret: intent.ClientSecret,
			Subscription: billing.VisibleInfo(sub),
		})

	default: // active, trialing
		intent, err := h.Billing.CreateSetupIntent(ctx, rec.CustomerID, req.PaymentMethodID)
		if err != nil {
			h.Log.Error("create setup intent failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		webutil.JSON(w, http.StatusOK, intentResponse{
			ClientSecret: intent.ClientSecret,
			Subscription: billing.VisibleInfo(sub),
		})
	}
}

// resubscribe replaces a canceled subscription with a fresh one built
// from the jurisdiction stored on the customer. No trial the second time
// around.
func (h *Handler) resubscribe(ctx context.Context, w http.ResponseWriter, dom models.Domain,
	rec models.SubscriptionRecord, old billing.Subscription) {

	cust, err := h.Billing.GetCustomer(ctx, rec.CustomerID)
	if err != nil {
		h.Log.Error("get customer failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	qty := old.Quantity
	if qty < 1 {
		qty = 1
	}
	sub, err := h.Billing.CreateSubscription(ctx, billing.CreateSubscriptionParams{
		CustomerID: rec.CustomerID,
		PlanID:     h.Plans.PlanFor(cust.Metadata["country_code"]),
		Quantity:   qty,
		European:   cust.Metadata["region"] == "Europe",
	})
	if err != nil {
		h.Log.Error("resubscribe failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	rec.SubID = sub.ID
	rec.Visible = billing.VisibleInfo(sub)
	rec.Raw = sub.Raw
	if err := h.Subs.Save(ctx, rec); err != nil {
		h.Log.Error("persist subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if err := h.Domains.SetSubscriptionInfo(ctx, dom.ID, rec.Visible); err != nil {
		h.Log.Error("update domain summary failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, intentResponse{Subscription: rec.Visible})
}
