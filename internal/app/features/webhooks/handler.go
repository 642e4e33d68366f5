// internal/app/features/webhooks/handler.go
package webhooks

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/webutil"
)

// EventSubscriptionUpdated is the only provider event this service
// consumes. Everything else is rejected so the provider stops retrying.
const EventSubscriptionUpdated = "customer.subscription.updated"

const maxPayloadBytes = 1 << 16

// Handler receives billing provider callbacks.
type Handler struct {
	Domains *domainstore.Store
	Subs    *subscriptionstore.Store
	Billing billing.Provider
	Log     *zap.Logger
}

func NewHandler(domains *domainstore.Store, subs *subscriptionstore.Store,
	provider billing.Provider, logger *zap.Logger) *Handler {
	return &Handler{Domains: domains, Subs: subs, Billing: provider, Log: logger}
}

// HandleStripeEvent verifies the signature, then mirrors subscription
// updates onto the stored record and the domain summary.
func (h *Handler) HandleStripeEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		webutil.Error(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	eventType, sub, err := h.Billing.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Log.Warn("webhook signature rejected", zap.Error(err))
		webutil.Error(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if eventType != EventSubscriptionUpdated {
		webutil.Error(w, http.StatusBadRequest, "unhandled event type")
		return
	}
	if sub.ID == "" {
		webutil.Error(w, http.StatusBadRequest, "missing subscription payload")
		return
	}

	rec, err := h.Subs.GetBySubID(r.Context(), sub.ID)
	if errors.Is(err, subscriptionstore.ErrNotFound) {
		webutil.Error(w, http.StatusBadRequest, "unknown subscription")
		return
	}
	if err != nil {
		h.Log.Error("lookup subscription record failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	rec.Visible = billing.VisibleInfo(sub)
	rec.Raw = sub.Raw
	if err := h.Subs.Save(r.Context(), rec); err != nil {
		h.Log.Error("persist subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	if err := h.Domains.SetSubscriptionInfo(r.Context(), rec.DomainID, rec.Visible); err != nil {
		if errors.Is(err, domainstore.ErrNotFound) {
			webutil.Error(w, http.StatusBadRequest, "unknown domain")
			return
		}
		h.Log.Error("update domain summary failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	h.Log.Info("subscription updated via webhook",
		zap.String("sub_id", sub.ID),
		zap.String("status", sub.Status))
	webutil.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
