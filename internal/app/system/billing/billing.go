// internal/app/system/billing/billing.go

// Package billing wraps the payment provider. Handlers and lifecycle
// code talk to the Provider interface; the Stripe implementation lives
// in stripe.go and tests substitute a fake.
package billing

import (
	"context"
	"errors"
)

// Subscription statuses as reported by the provider.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusCanceled          = "canceled"
	StatusUnpaid            = "unpaid"
	StatusPastDue           = "past_due"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
)

// BillingReasonSubscriptionCreate marks the invoice generated when a
// subscription is first created.
const BillingReasonSubscriptionCreate = "subscription_create"

var ErrNoSubscription = errors.New("no subscription for customer")

// Config selects the seat plan by jurisdiction. GB owners get the GBP
// plan with UK VAT; everyone else gets the USD plan. European customers
// additionally get the EU tax rate attached.
type Config struct {
	PlanGBP   string
	PlanUSD   string
	EUTaxRate string
}

// PlanFor returns the plan id for an owner's country code.
func (c Config) PlanFor(countryCode string) string {
	if countryCode == "GB" {
		return c.PlanGBP
	}
	return c.PlanUSD
}

// Customer is the provider's customer object reduced to what this
// service reads back.
type Customer struct {
	ID                     string
	Email                  string
	Metadata               map[string]string
	DefaultPaymentMethodID string
}

// Subscription is the provider subscription reduced to the fields the
// projection and intent logic need, plus the raw provider JSON for
// persistence.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PlanNickname       string
	PlanAmount         int64
	Currency           string
	Interval           string
	Quantity           int64
	TaxPercent         float64
	TrialStart         int64
	TrialEnd           int64
	CurrentPeriodEnd   int64
	BillingCycleAnchor int64
	CancelAt           int64
	CanceledAt         int64
	EndedAt            int64
	CancelAtPeriodEnd  bool
	LatestInvoice      *Invoice

	Raw []byte
}

// PaymentMethod is the display shape of a stored card. Default carries
// the literal "Default" marker for the customer's invoice default, empty
// otherwise.
type PaymentMethod struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
	Default  string `json:"default"`
}

// InvoiceLine is one display-shaped invoice line item.
type InvoiceLine struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
}

// Invoice is the display shape of a provider invoice. Monetary amounts
// are converted from minor to major units, except AmountDueMinor which
// the payment-intent path needs verbatim.
type Invoice struct {
	ID                 string        `json:"id"`
	AmountDue          float64       `json:"amount_due"`
	AmountDueMinor     int64         `json:"-"`
	AmountPaid         float64       `json:"amount_paid"`
	AmountRemaining    float64       `json:"amount_remaining"`
	BillingReason      string        `json:"billing_reason"`
	Created            int64         `json:"created"`
	Currency           string        `json:"currency"`
	Description        string        `json:"description"`
	HostedInvoiceURL   string        `json:"hosted_invoice_url"`
	InvoicePDF         string        `json:"invoice_pdf"`
	Lines              []InvoiceLine `json:"lines"`
	NextPaymentAttempt int64         `json:"next_payment_attempt"`
	Paid               bool          `json:"paid"`
	Status             string        `json:"status"`
	Subtotal           float64       `json:"subtotal"`
	Tax                float64       `json:"tax"`
}

// Intent is a created setup- or payment-intent. The client secret goes
// back to the browser to complete the flow.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateCustomerParams carries the owner's billing jurisdiction.
// Non-GB European customers with a VAT number are tax-exempt under the
// reverse-charge mechanism.
type CreateCustomerParams struct {
	Email       string
	CountryCode string
	Region      string
	VATNumber   string
}

// CreateSubscriptionParams creates a seat-counted subscription.
// TrialDays is zero when the customer already existed (re-subscribes
// charge immediately).
type CreateSubscriptionParams struct {
	CustomerID string
	PlanID     string
	Quantity   int64
	TrialDays  int64
	European   bool
}

// PaymentIntentParams creates an immediate charge.
type PaymentIntentParams struct {
	CustomerID      string
	PaymentMethodID string
	Description     string
	Amount          int64
	Currency        string
}

// Provider is the payment-provider surface this service consumes.
type Provider interface {
	CreateCustomer(ctx context.Context, p CreateCustomerParams) (Customer, error)
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error

	CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (Subscription, error)
	GetSubscription(ctx context.Context, subID string) (Subscription, error)
	SetQuantity(ctx context.Context, subID string, quantity int64) (Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subID string, cancel bool) (Subscription, error)
	CancelNow(ctx context.Context, subID string) (Subscription, error)
	ClearPendingInvoiceItems(ctx context.Context, customerID string) error

	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	ListInvoices(ctx context.Context, customerID string) ([]Invoice, error)
	CreateSetupIntent(ctx context.Context, customerID, paymentMethodID string) (Intent, error)
	CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (Intent, error)

	// ParseWebhook verifies the signature on a provider callback and,
	// for subscription events, decodes the subscription payload.
	ParseWebhook(payload []byte, signature string) (eventType string, sub Subscription, err error)
}
