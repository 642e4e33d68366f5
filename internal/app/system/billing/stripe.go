// internal/app/system/billing/stripe.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Stripe is the production Provider backed by the Stripe API.
type Stripe struct {
	api           *client.API
	webhookSecret string
	euTaxRate     string
	log           *zap.Logger
}

var _ Provider = (*Stripe)(nil)

func NewStripe(apiKey, webhookSecret, euTaxRate string, log *zap.Logger) *Stripe {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &Stripe{api: sc, webhookSecret: webhookSecret, euTaxRate: euTaxRate, log: log}
}

func (s *Stripe) CreateCustomer(ctx context.Context, p CreateCustomerParams) (Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
	}
	params.Context = ctx
	params.AddMetadata("country_code", p.CountryCode)
	params.AddMetadata("region", p.Region)
	if p.VATNumber != "" {
		params.AddMetadata("vat_number", p.VATNumber)
	}
	// Reverse charge applies to VAT-registered EU businesses outside
	// the UK.
	if p.Region == "Europe" && p.CountryCode != "GB" && p.VATNumber != "" {
		params.TaxExempt = stripe.String(string(stripe.CustomerTaxExemptReverse))
	}

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}

	if p.VATNumber != "" && p.CountryCode != "GB" {
		tp := &stripe.TaxIDParams{
			Customer: stripe.String(cust.ID),
			Type:     stripe.String(string(stripe.TaxIDTypeEUVAT)),
			Value:    stripe.String(p.VATNumber),
		}
		tp.Context = ctx
		if _, err := s.api.TaxIDs.New(tp); err != nil {
			s.log.Warn("attach vat tax id failed",
				zap.String("customer_id", cust.ID), zap.Error(err))
		}
	}

	return toCustomer(cust), nil
}

func (s *Stripe) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddExpand("invoice_settings.default_payment_method")
	cust, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %s: %w", customerID, err)
	}
	return toCustomer(cust), nil
}

func (s *Stripe) DeleteCustomer(ctx context.Context, customerID string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if _, err := s.api.Customers.Del(customerID, params); err != nil {
		return fmt.Errorf("delete customer %s: %w", customerID, err)
	}
	return nil
}

func (s *Stripe) CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{{
			Plan:     stripe.String(p.PlanID),
			Quantity: stripe.Int64(p.Quantity),
		}},
		TrialPeriodDays: stripe.Int64(p.TrialDays),
	}
	if p.European && s.euTaxRate != "" {
		params.DefaultTaxRates = []*string{stripe.String(s.euTaxRate)}
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		return Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return toSubscription(sub), nil
}

func (s *Stripe) GetSubscription(ctx context.Context, subID string) (Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	sub, err := s.api.Subscriptions.Get(subID, params)
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription %s: %w", subID, err)
	}
	return toSubscription(sub), nil
}

func (s *Stripe) SetQuantity(ctx context.Context, subID string, quantity int64) (Subscription, error) {
	get := &stripe.SubscriptionParams{}
	get.Context = ctx
	cur, err := s.api.Subscriptions.Get(subID, get)
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription %s: %w", subID, err)
	}
	if cur.Items == nil || len(cur.Items.Data) == 0 {
		return Subscription{}, fmt.Errorf("subscription %s has no items", subID)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:       stripe.String(cur.Items.Data[0].ID),
			Quantity: stripe.Int64(quantity),
		}},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	sub, err := s.api.Subscriptions.Update(subID, params)
	if err != nil {
		return Subscription{}, fmt.Errorf("update subscription %s: %w", subID, err)
	}
	return toSubscription(sub), nil
}

func (s *Stripe) SetCancelAtPeriodEnd(ctx context.Context, subID string, cancel bool) (Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	sub, err := s.api.Subscriptions.Update(subID, params)
	if err != nil {
		return Subscription{}, fmt.Errorf("update subscription %s: %w", subID, err)
	}
	return toSubscription(sub), nil
}

func (s *Stripe) CancelNow(ctx context.Context, subID string) (Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	sub, err := s.api.Subscriptions.Cancel(subID, params)
	if err != nil {
		return Subscription{}, fmt.Errorf("cancel subscription %s: %w", subID, err)
	}
	return toSubscription(sub), nil
}

// ClearPendingInvoiceItems deletes any invoice items queued for the
// customer's next invoice. Run before a hard cancel so seat-change
// prorations do not bill after the subscription is gone.
func (s *Stripe) ClearPendingInvoiceItems(ctx context.Context, customerID string) error {
	params := &stripe.InvoiceItemListParams{
		Customer: stripe.String(customerID),
		Pending:  stripe.Bool(true),
	}
	params.Context = ctx
	iter := s.api.InvoiceItems.List(params)
	for iter.Next() {
		ii := iter.InvoiceItem()
		del := &stripe.InvoiceItemParams{}
		del.Context = ctx
		if _, err := s.api.InvoiceItems.Del(ii.ID, del); err != nil {
			return fmt.Errorf("delete invoice item %s: %w", ii.ID, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("list invoice items: %w", err)
	}
	return nil
}

func (s *Stripe) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	out := []PaymentMethod{}
	iter := s.api.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		m := PaymentMethod{ID: pm.ID}
		if pm.Card != nil {
			m.Brand = string(pm.Card.Brand)
			m.Last4 = pm.Card.Last4
			m.ExpMonth = pm.Card.ExpMonth
			m.ExpYear = pm.Card.ExpYear
		}
		if pm.ID == cust.DefaultPaymentMethodID {
			m.Default = "Default"
		}
		out = append(out, m)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return out, nil
}

func (s *Stripe) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	if _, err := s.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return fmt.Errorf("attach payment method: %w", err)
	}
	return nil
}

func (s *Stripe) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	if _, err := s.api.PaymentMethods.Detach(paymentMethodID, params); err != nil {
		return fmt.Errorf("detach payment method: %w", err)
	}
	return nil
}

func (s *Stripe) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	if _, err := s.api.Customers.Update(customerID, params); err != nil {
		return fmt.Errorf("set default payment method: %w", err)
	}
	return nil
}

func (s *Stripe) ListInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	out := []Invoice{}
	iter := s.api.Invoices.List(params)
	for iter.Next() {
		out = append(out, toInvoice(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (s *Stripe) CreateSetupIntent(ctx context.Context, customerID, paymentMethodID string) (Intent, error) {
	params := &stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
	}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}
	params.Context = ctx
	si, err := s.api.SetupIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create setup intent: %w", err)
	}
	return Intent{ID: si.ID, ClientSecret: si.ClientSecret}, nil
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Customer:    stripe.String(p.CustomerID),
		Amount:      stripe.Int64(p.Amount),
		Currency:    stripe.String(p.Currency),
		Description: stripe.String(p.Description),
		PaymentMethodTypes: stripe.StringSlice([]string{
			string(stripe.PaymentMethodTypeCard),
		}),
	}
	if p.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethodID)
	}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (string, Subscription, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return "", Subscription{}, fmt.Errorf("verify webhook: %w", err)
	}

	var sub Subscription
	switch {
	case event.Data != nil && len(event.Data.Raw) > 0:
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err == nil && ss.ID != "" {
			sub = toSubscription(&ss)
		}
	}
	return string(event.Type), sub, nil
}

func toCustomer(c *stripe.Customer) Customer {
	out := Customer{
		ID:       c.ID,
		Email:    c.Email,
		Metadata: c.Metadata,
	}
	if c.InvoiceSettings != nil && c.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethodID = c.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}

func toSubscription(s *stripe.Subscription) Subscription {
	out := Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		TrialStart:         s.TrialStart,
		TrialEnd:           s.TrialEnd,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		BillingCycleAnchor: s.BillingCycleAnchor,
		CancelAt:           s.CancelAt,
		CanceledAt:         s.CanceledAt,
		EndedAt:            s.EndedAt,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		out.Quantity = item.Quantity
		if item.Plan != nil {
			out.PlanNickname = item.Plan.Nickname
			out.PlanAmount = item.Plan.Amount
			out.Currency = string(item.Plan.Currency)
			out.Interval = string(item.Plan.Interval)
		} else if item.Price != nil {
			out.PlanNickname = item.Price.Nickname
			out.PlanAmount = item.Price.UnitAmount
			out.Currency = string(item.Price.Currency)
			if item.Price.Recurring != nil {
				out.Interval = string(item.Price.Recurring.Interval)
			}
		}
	}
	if len(s.DefaultTaxRates) > 0 && s.DefaultTaxRates[0] != nil {
		out.TaxPercent = s.DefaultTaxRates[0].Percentage
	}
	if s.LatestInvoice != nil {
		inv := toInvoice(s.LatestInvoice)
		out.LatestInvoice = &inv
	}
	if raw, err := json.Marshal(s); err == nil {
		out.Raw = raw
	}
	return out
}

func toInvoice(in *stripe.Invoice) Invoice {
	out := Invoice{
		ID:                 in.ID,
		AmountDue:          float64(in.AmountDue) / 100,
		AmountDueMinor:     in.AmountDue,
		AmountPaid:         float64(in.AmountPaid) / 100,
		AmountRemaining:    float64(in.AmountRemaining) / 100,
		BillingReason:      string(in.BillingReason),
		Created:            in.Created,
		Currency:           string(in.Currency),
		Description:        in.Description,
		HostedInvoiceURL:   in.HostedInvoiceURL,
		InvoicePDF:         in.InvoicePDF,
		NextPaymentAttempt: in.NextPaymentAttempt,
		Paid:               in.Paid,
		Status:             string(in.Status),
		Subtotal:           float64(in.Subtotal) / 100,
		Tax:                float64(in.Tax) / 100,
	}
	if in.Lines != nil {
		for _, line := range in.Lines.Data {
			out.Lines = append(out.Lines, InvoiceLine{
				ID:          line.ID,
				Amount:      line.Amount,
				Currency:    string(line.Currency),
				Description: line.Description,
				Quantity:    line.Quantity,
			})
		}
	}
	return out
}
