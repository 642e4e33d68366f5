package testutil

import (
	"context"
	"sync"

	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/mailer"
	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// FakeBilling is an in-memory billing.Provider for handler tests.
//
// Zero value is usable: every call succeeds and returns the configured
// stub objects. Set an Err field to make the matching method fail, and
// read the recorded fields afterwards to assert what was called.
type FakeBilling struct {
	mu sync.Mutex

	Customer     billing.Customer
	Subscription billing.Subscription
	Methods      []billing.PaymentMethod
	Invoices     []billing.Invoice
	Intent       billing.Intent

	// CreateSubscriptionResult, when set, is returned by
	// CreateSubscription instead of Subscription. Tests that replace
	// one subscription with another need the two to differ.
	CreateSubscriptionResult *billing.Subscription

	// ParseWebhook stubs.
	WebhookEventType string
	WebhookSub       billing.Subscription
	WebhookErr       error

	CreateCustomerErr     error
	GetCustomerErr        error
	CreateSubscriptionErr error
	GetSubscriptionErr    error
	SetQuantityErr        error

	CreatedCustomers     []billing.CreateCustomerParams
	CreatedSubscriptions []billing.CreateSubscriptionParams
	CreatedIntents       []billing.PaymentIntentParams
	QuantityCalls        []int64
	CancelAtPeriodEnd    []bool
	CanceledNow          []string
	DeletedCustomers     []string
	ClearedPending       []string
	AttachedMethods      []string
	DetachedMethods      []string
	DefaultMethods       []string
	SetupIntentCustomers []string
}

var _ billing.Provider = (*FakeBilling)(nil)

func (f *FakeBilling) CreateCustomer(_ context.Context, p billing.CreateCustomerParams) (billing.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateCustomerErr != nil {
		return billing.Customer{}, f.CreateCustomerErr
	}
	f.CreatedCustomers = append(f.CreatedCustomers, p)
	return f.Customer, nil
}

func (f *FakeBilling) GetCustomer(_ context.Context, customerID string) (billing.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetCustomerErr != nil {
		return billing.Customer{}, f.GetCustomerErr
	}
	cust := f.Customer
	if cust.ID == "" {
		cust.ID = customerID
	}
	return cust, nil
}

func (f *FakeBilling) DeleteCustomer(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedCustomers = append(f.DeletedCustomers, customerID)
	return nil
}

func (f *FakeBilling) CreateSubscription(_ context.Context, p billing.CreateSubscriptionParams) (billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateSubscriptionErr != nil {
		return billing.Subscription{}, f.CreateSubscriptionErr
	}
	f.CreatedSubscriptions = append(f.CreatedSubscriptions, p)
	if f.CreateSubscriptionResult != nil {
		return *f.CreateSubscriptionResult, nil
	}
	return f.Subscription, nil
}

func (f *FakeBilling) GetSubscription(_ context.Context, subID string) (billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetSubscriptionErr != nil {
		return billing.Subscription{}, f.GetSubscriptionErr
	}
	sub := f.Subscription
	if sub.ID == "" {
		sub.ID = subID
	}
	return sub, nil
}

func (f *FakeBilling) SetQuantity(_ context.Context, _ string, quantity int64) (billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetQuantityErr != nil {
		return billing.Subscription{}, f.SetQuantityErr
	}
	f.QuantityCalls = append(f.QuantityCalls, quantity)
	sub := f.Subscription
	sub.Quantity = quantity
	return sub, nil
}

func (f *FakeBilling) SetCancelAtPeriodEnd(_ context.Context, _ string, cancel bool) (billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CancelAtPeriodEnd = append(f.CancelAtPeriodEnd, cancel)
	sub := f.Subscription
	sub.CancelAtPeriodEnd = cancel
	return sub, nil
}

func (f *FakeBilling) CancelNow(_ context.Context, subID string) (billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CanceledNow = append(f.CanceledNow, subID)
	sub := f.Subscription
	sub.Status = billing.StatusCanceled
	return sub, nil
}

func (f *FakeBilling) ClearPendingInvoiceItems(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearedPending = append(f.ClearedPending, customerID)
	return nil
}

func (f *FakeBilling) ListPaymentMethods(_ context.Context, _ string) ([]billing.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Methods, nil
}

func (f *FakeBilling) AttachPaymentMethod(_ context.Context, _, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AttachedMethods = append(f.AttachedMethods, paymentMethodID)
	return nil
}

func (f *FakeBilling) DetachPaymentMethod(_ context.Context, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetachedMethods = append(f.DetachedMethods, paymentMethodID)
	return nil
}

func (f *FakeBilling) SetDefaultPaymentMethod(_ context.Context, _, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DefaultMethods = append(f.DefaultMethods, paymentMethodID)
	return nil
}

func (f *FakeBilling) ListInvoices(_ context.Context, _ string) ([]billing.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Invoices, nil
}

func (f *FakeBilling) CreateSetupIntent(_ context.Context, customerID, _ string) (billing.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetupIntentCustomers = append(f.SetupIntentCustomers, customerID)
	return f.Intent, nil
}

func (f *FakeBilling) CreatePaymentIntent(_ context.Context, p billing.PaymentIntentParams) (billing.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedIntents = append(f.CreatedIntents, p)
	return f.Intent, nil
}

func (f *FakeBilling) ParseWebhook(_ []byte, _ string) (string, billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WebhookErr != nil {
		return "", billing.Subscription{}, f.WebhookErr
	}
	return f.WebhookEventType, f.WebhookSub, nil
}

// FakeMailer records invitation emails instead of sending them.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []mailer.InviteEmail
	Err  error
}

var _ mailer.Sender = (*FakeMailer)(nil)

func (f *FakeMailer) SendInvite(_ context.Context, inv mailer.InviteEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, inv)
	return nil
}

// FakeIdentityFetcher serves identity records from a map, for middleware
// tests that bypass the database.
type FakeIdentityFetcher struct {
	Identities map[string]*models.Identity
	Err        error
}

func (f *FakeIdentityFetcher) FetchIdentity(_ context.Context, uid string) (*models.Identity, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	ident, ok := f.Identities[uid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return ident, nil
}
