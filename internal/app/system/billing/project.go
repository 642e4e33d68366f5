// internal/app/system/billing/project.go

package billing

import (
	"github.com/teambase/teambase/internal/domain/models"
)

// VisibleInfo projects a provider subscription onto the summary embedded
// in the domain document. Amount is converted to major units.
func VisibleInfo(s Subscription) models.SubscriptionInfo {
	next := s.CurrentPeriodEnd
	if s.Status == StatusTrialing && s.TrialEnd > 0 {
		next = s.TrialEnd
	}
	return models.SubscriptionInfo{
		ID:                s.ID,
		Nickname:          s.PlanNickname,
		Quantity:          s.Quantity,
		Amount:            float64(s.PlanAmount) / 100,
		TaxPercent:        s.TaxPercent,
		Currency:          s.Currency,
		Interval:          s.Interval,
		Status:            s.Status,
		TrialStart:        s.TrialStart,
		TrialEnd:          s.TrialEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		NextInvoiceDue:    next,
	}
}

// PaymentAmount picks the amount for an immediate charge on a delinquent
// subscription. The open invoice's balance is used unless that invoice
// is the initial subscription_create one, in which case the seat total
// is recomputed from the plan.
func PaymentAmount(s Subscription) int64 {
	if s.LatestInvoice != nil && s.LatestInvoice.BillingReason != BillingReasonSubscriptionCreate {
		return s.LatestInvoice.AmountDueMinor
	}
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	return s.PlanAmount * qty
}

// Cost returns the pre-tax and tax amounts for the current seat count,
// in major units.
func Cost(s Subscription) (cost, tax float64) {
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	cost = float64(s.PlanAmount*qty) / 100
	tax = cost * s.TaxPercent / 100
	return cost, tax
}
