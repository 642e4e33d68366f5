// internal/domain/models/subscription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionInfo is the display-safe projection of a billing-provider
// subscription. It is stored on the domain document and alongside the raw
// provider object in the subscriptions collection; every billing write
// path refreshes both copies.
type SubscriptionInfo struct {
	ID                string  `bson:"id" json:"id"`
	Nickname          string  `bson:"nickname" json:"nickname"`
	Quantity          int64   `bson:"quantity" json:"quantity"`
	Amount            float64 `bson:"amount" json:"amount"`
	TaxPercent        float64 `bson:"tax_percent" json:"tax_percent"`
	Currency          string  `bson:"currency" json:"currency"`
	Interval          string  `bson:"interval" json:"interval"`
	Status            string  `bson:"status" json:"status"`
	TrialStart        int64   `bson:"trial_start" json:"trial_start"`
	TrialEnd          int64   `bson:"trial_end" json:"trial_end"`
	CancelAtPeriodEnd bool    `bson:"cancel_at_period_end" json:"cancel_at_period_end"`
	NextInvoiceDue    int64   `bson:"next_invoice_due" json:"next_invoice_due"`
}

// SubscriptionRecord pairs the visible summary with the raw provider
// object for one domain. The raw object is opaque to this service; it is
// persisted verbatim so the webhook can patch it without a provider call.
type SubscriptionRecord struct {
	DomainID   primitive.ObjectID `bson:"_id" json:"domain_id"`
	CustomerID string             `bson:"customer_id" json:"customer_id"`
	SubID      string             `bson:"sub_id" json:"sub_id"`
	Visible    SubscriptionInfo   `bson:"visible" json:"visible"`
	Raw        []byte             `bson:"raw" json:"-"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// BillingCustomer maps an identity uid onto its billing-provider customer
// id. Keyed by uid; the webhook resolves the reverse direction.
type BillingCustomer struct {
	UID        string    `bson:"_id" json:"uid"`
	CustomerID string    `bson:"customer_id" json:"customer_id"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
