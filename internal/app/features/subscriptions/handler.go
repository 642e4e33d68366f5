// internal/app/features/subscriptions/handler.go
package subscriptions

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/authz"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/lifecycle"
	"github.com/teambase/teambase/internal/app/system/timeouts"
	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
)

// Seat-change actions accepted by HandleUpdate.
const (
	ActionReactivate        = "REACTIVATE"
	ActionIncrementQuantity = "INCREMENT_QUANTITY"
	ActionDecrementQuantity = "DECREMENT_QUANTITY"
)

// Handler is the shared dependency container for the subscriptions
// feature. All endpoints are owner-only.
type Handler struct {
	Domains   *domainstore.Store
	Members   *memberstore.Store
	Subs      *subscriptionstore.Store
	Billing   billing.Provider
	Plans     billing.Config
	Lifecycle *lifecycle.Manager
	Log       *zap.Logger
}

func NewHandler(domains *domainstore.Store, members *memberstore.Store,
	subs *subscriptionstore.Store, provider billing.Provider, plans billing.Config,
	lc *lifecycle.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Domains: domains, Members: members, Subs: subs,
		Billing: provider, Plans: plans, Lifecycle: lc, Log: logger,
	}
}

// ownedDomain resolves a domain id to a domain the caller owns. Billing
// is never delegated to administrators. Writes the error response and
// returns ok=false when the caller should not proceed.
func (h *Handler) ownedDomain(w http.ResponseWriter, r *http.Request, hex string) (models.Domain, *models.Identity, bool) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		webutil.Unauthorized(w)
		return models.Domain{}, nil, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return models.Domain{}, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	dom, err := h.Domains.GetByID(ctx, id)
	if errors.Is(err, domainstore.ErrNotFound) {
		webutil.Error(w, http.StatusNotFound, "domain not found")
		return models.Domain{}, nil, false
	}
	if err != nil {
		h.Log.Error("get domain failed", zap.Error(err))
		webutil.ServerError(w)
		return models.Domain{}, nil, false
	}
	if !authz.IsOwner(ident, dom) {
		webutil.Unauthorized(w)
		return models.Domain{}, nil, false
	}
	return dom, ident, true
}

// persist stores the subscription state everywhere it is mirrored: the
// subscriptions collection and the domain's visible summary.
func (h *Handler) persist(ctx context.Context, dom models.Domain, customerID string, sub billing.Subscription) (models.SubscriptionRecord, error) {
	rec := models.SubscriptionRecord{
		DomainID:   dom.ID,
		CustomerID: customerID,
		SubID:      sub.ID,
		Visible:    billing.VisibleInfo(sub),
		Raw:        sub.Raw,
	}
	if err := h.Subs.Save(ctx, rec); err != nil {
		return rec, err
	}
	return rec, h.Domains.SetSubscriptionInfo(ctx, dom.ID, rec.Visible)
}

type createRequest struct {
	Domain      string `json:"domain"`
	CountryCode string `json:"countryCode"`
	Region      string `json:"region"`
	VATNumber   string `json:"vatNumber"`
}

// HandleCreate starts a subscription for the caller's domain. New
// customers get a 30-day trial; a returning customer is charged from the
// first invoice. The initial seat count is the domain's member count.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !webutil.Decode(w, r, &req) {
		return
	}
	if req.Domain == "" || req.CountryCode == "" {
		webutil.Error(w, http.StatusBadRequest, "domain and countryCode are required")
		return
	}

	dom, ident, ok := h.ownedDomain(w, r, req.Domain)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	customerID, trialDays, err := h.ensureCustomer(ctx, ident, req)
	if err != nil {
		h.Log.Error("ensure billing customer failed",
			zap.String("uid", ident.UID), zap.Error(err))
		webutil.ServerError(w)
		return
	}

	memberList, err := h.Members.ListForDomain(ctx, dom.ID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	qty := int64(len(memberList))
	if qty < 1 {
		qty = 1
	}

	sub, err := h.Billing.CreateSubscription(ctx, billing.CreateSubscriptionParams{
		CustomerID: customerID,
		PlanID:     h.Plans.PlanFor(req.CountryCode),
		Quantity:   qty,
		TrialDays:  trialDays,
		European:   req.Region == "Europe",
	})
	if err != nil {
		h.Log.Error("create subscription failed",
			zap.String("customer_id", customerID), zap.Error(err))
		webutil.ServerError(w)
		return
	}

	rec, err := h.persist(ctx, dom, customerID, sub)
	if err != nil {
		h.Log.Error("persist subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusCreated, rec.Visible)
}

// ensureCustomer returns the caller's billing customer id, creating the
// customer on first use. The trial only applies to brand-new customers.
func (h *Handler) ensureCustomer(ctx context.Context, ident *models.Identity, req createRequest) (string, int64, error) {
	customerID, err := h.Subs.GetCustomer(ctx, ident.UID)
	if err == nil {
		return customerID, 0, nil
	}
	if !errors.Is(err, subscriptionstore.ErrCustomerNotFound) {
		return "", 0, err
	}

	cust, err := h.Billing.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email:       ident.Email,
		CountryCode: req.CountryCode,
		Region:      req.Region,
		VATNumber:   req.VATNumber,
	})
	if err != nil {
		return "", 0, err
	}
	if err := h.Subs.SetCustomer(ctx, ident.UID, cust.ID); err != nil {
		return "", 0, err
	}
	return cust.ID, 30, nil
}

// subscriptionView is the full display shape returned by HandleGet.
type subscriptionView struct {
	Subscription   models.SubscriptionInfo `json:"subscription"`
	PaymentMethods []billing.PaymentMethod `json:"payment_methods"`
	Invoices       []billing.Invoice       `json:"invoices"`
	Cost           float64                 `json:"cost"`
	CostTax        float64                 `json:"cost_tax"`
}

// HandleGet returns the subscription with shaped payment methods,
// invoices, and the current seat cost.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dom, _, ok := h.ownedDomain(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

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
	methods, err := h.Billing.ListPaymentMethods(ctx, rec.CustomerID)
	if err != nil {
		h.Log.Error("list payment methods failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	invoices, err := h.Billing.ListInvoices(ctx, rec.CustomerID)
	if err != nil {
		h.Log.Error("list invoices failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	cost, tax := billing.Cost(sub)
	webutil.JSON(w, http.StatusOK, subscriptionView{
		Subscription:   billing.VisibleInfo(sub),
		PaymentMethods: methods,
		Invoices:       invoices,
		Cost:           cost,
		CostTax:        tax,
	})
}

type updateRequest struct {
	Action string `json:"action"`
}

// HandleUpdate applies a seat-count change or reinstates a subscription
// that was set to lapse.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	dom, _, ok := h.ownedDomain(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

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

	var req updateRequest
	if !webutil.Decode(w, r, &req) {
		return
	}

	var sub billing.Subscription
	switch req.Action {
	case ActionReactivate:
		cur, err := h.Billing.GetSubscription(ctx, rec.SubID)
		if err != nil {
			h.Log.Error("fetch subscription failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		if cur.Status != billing.StatusActive || !cur.CancelAtPeriodEnd {
			webutil.Error(w, http.StatusBadRequest, "subscription is not pending cancelation")
			return
		}
		sub, err = h.Billing.SetCancelAtPeriodEnd(ctx, rec.SubID, false)
		if err != nil {
			h.Log.Error("reactivate subscription failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}

	case ActionIncrementQuantity, ActionDecrementQuantity:
		qty := rec.Visible.Quantity
		if req.Action == ActionIncrementQuantity {
			qty++
		} else {
			qty--
		}
		if qty < 1 {
			qty = 1
		}
		sub, err = h.Billing.SetQuantity(ctx, rec.SubID, qty)
		if err != nil {
			h.Log.Error("change seat count failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}

	default:
		webutil.Error(w, http.StatusBadRequest, "unknown action")
		return
	}

	rec, err = h.persist(ctx, dom, rec.CustomerID, sub)
	if err != nil {
		h.Log.Error("persist subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, rec.Visible)
}

// HandleCancel ends a subscription. An active subscription runs out its
// paid period; a trial is canceled outright and the team is reduced to
// its owner.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	dom, _, ok := h.ownedDomain(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Trial cancelation also strips the team down to its owner.
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "subscription cancel")
	defer cancel()

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

	cur, err := h.Billing.GetSubscription(ctx, rec.SubID)
	if err != nil {
		h.Log.Error("fetch subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	if err := h.Billing.ClearPendingInvoiceItems(ctx, rec.CustomerID); err != nil {
		h.Log.Error("clear pending invoice items failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}

	var sub billing.Subscription
	if cur.Status == billing.StatusTrialing {
		sub, err = h.Billing.CancelNow(ctx, rec.SubID)
		if err != nil {
			h.Log.Error("cancel subscription failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
		if err := h.Lifecycle.StripToOwner(ctx, dom); err != nil {
			h.Log.Error("strip members after trial cancel failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
	} else {
		sub, err = h.Billing.SetCancelAtPeriodEnd(ctx, rec.SubID, true)
		if err != nil {
			h.Log.Error("schedule cancelation failed", zap.Error(err))
			webutil.ServerError(w)
			return
		}
	}

	rec, err = h.persist(ctx, dom, rec.CustomerID, sub)
	if err != nil {
		h.Log.Error("persist subscription failed", zap.Error(err))
		webutil.ServerError(w)
		return
	}
	webutil.JSON(w, http.StatusOK, rec.Visible)
}
