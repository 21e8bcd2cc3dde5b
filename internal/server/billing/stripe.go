package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api        *client.API
	priceID    string
	successURL string
	cancelURL  string
	returnURL  string
}

// StripeConfig carries the provider settings injected at startup.
type StripeConfig struct {
	APIKey     string
	PriceID    string
	SuccessURL string
	CancelURL  string
	ReturnURL  string
}

// NewStripeProvider constructs a provider client with its own API handle;
// no global Stripe state is mutated.
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)
	return &StripeProvider{
		api:        api,
		priceID:    cfg.PriceID,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		returnURL:  cfg.ReturnURL,
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", common.ErrorPaymentProviderCall, err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", common.ErrorPaymentProviderCall, err)
	}
	return session.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(p.returnURL),
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", common.ErrorPaymentProviderCall, err)
	}
	return session.URL, nil
}

// StripeWebhookDecoder verifies webhook signatures with the shared webhook
// secret and decodes the two subscription lifecycle events.
type StripeWebhookDecoder struct {
	secret string
}

func NewStripeWebhookDecoder(secret string) *StripeWebhookDecoder {
	return &StripeWebhookDecoder{secret: secret}
}

// subscriptionObject is the subset of the event payload this system reads.
// In webhook payloads the customer field is the plain customer id.
type subscriptionObject struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
}

// Decode checks the signature over the raw payload bytes and extracts the
// event. The signature error is mapped to common.ErrorSignatureInvalid
// without the header contents; nothing secret ever enters the error chain.
func (d *StripeWebhookDecoder) Decode(payload []byte, signatureHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, d.secret)
	if err != nil {
		return nil, common.ErrorSignatureInvalid
	}

	var sub subscriptionObject
	if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("decode event object: %w", err)
	}

	return &Event{
		Type:           EventType(ev.Type),
		CustomerID:     sub.Customer,
		SubscriptionID: sub.ID,
		Status:         sub.Status,
	}, nil
}
