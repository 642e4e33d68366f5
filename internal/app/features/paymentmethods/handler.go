// internal/app/features/paymentmethods/handler.go
package paymentmethods

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/timeouts"
	"github.com/teambase/teambase/internal/app/system/webutil"
)

// Card actions accepted by HandleUpdate.
const (
	ActionDefault = "DEFAULT"
	ActionDetach  = "DETACH"
)

// Handler manages the caller's stored cards. Cards hang off the billing
// customer, which is keyed to the caller's uid, so no domain context is
// needed.
type Handler struct {
	Subs    *subscriptionstore.Store
	Billing billing.Provider
	Log     *zap.Logger
}

func NewHandler(subs *subscriptionstore.Store, provider billing.Provider, logger *zap.Logger) *Handler {
	return &Handler{Subs: subs, Billing: provider, Log: logger}
}

// customerFor resolves the caller's billing customer, writing the error
// response on failure.
func (h *Handler) customerFor(w http.ResponseWriter, r *http.Request) (string, bool) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return "", false
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	customerID, err := h.Subs.GetCustomer(ctx, ident.UID)
	if errors.Is(err, subscriptionstore.ErrCustomerNotFound) {
		webutil.Error(w, http.StatusNotFound, "no billing account")
		return "", false
	}
	if err != nil {
		h.Log.Error("get billing customer failed", zap.Error(err))
		webutil.ServerError(w)
		return "", false
	}
	return customerID, true
}

// HandleList returns the caller's stored cards with the invoice default
// marked.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerFor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	methods, err := h.Billing.ListPaymentMethods(ctx, customerID)
	if err != nil {
		h.Log.Error("list payment methods failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, methods)
}

type attachRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

// HandleAttach stores a new card against the caller's customer.
func (h *Handler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerFor(w, r)
	if !ok {
		return
	}

	var req attachRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.PaymentMethodID == "" {
		webutil.Error(w, http.StatusBadRequest, "paymentMethodId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Billing.AttachPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		h.Log.Error("attach payment method failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.NoContent(w)
}

type updateRequest struct {
	Action string `json:"action"`
}

// HandleUpdate makes a card the invoice default or detaches it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerFor(w, r)
	if !ok {
		return
	}
	pmID := chi.URLParam(r, "pmID")

	var req updateRequest
	if !webutil.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	switch req.Action {
	case ActionDefault:
		if err := h.Billing.SetDefaultPaymentMethod(ctx, customerID, pmID); err != nil {
			h.Log.Error("set default payment method failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
	case ActionDetach:
		if err := h.Billing.DetachPaymentMethod(ctx, pmID); err != nil {
			h.Log.Error("detach payment method failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
	default:
		webutil.Error(w, http.StatusBadRequest, "unknown action")
		return
	}
	webutil.NoContent(w)
}
