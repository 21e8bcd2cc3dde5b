// Package billing wraps the payment provider behind narrow interfaces: an
// outbound client for customer/checkout/portal calls and a decoder that
// authenticates inbound webhook payloads. Services depend on the interfaces
// so tests never touch the Stripe API.
package billing

import "context"

// EventType enumerates the provider lifecycle events this system processes.
type EventType string

const (
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is a verified, decoded provider notification.
type Event struct {
	Type EventType
	// CustomerID is the provider's customer reference used to resolve
	// the local account.
	CustomerID string
	// SubscriptionID is the provider's subscription reference.
	SubscriptionID string
	// Status is only meaningful for EventSubscriptionUpdated.
	Status string
}

// Provider is the outbound payment-provider client.
type Provider interface {
	// CreateCustomer registers the account with the provider and
	// returns the provider's customer id.
	CreateCustomer(ctx context.Context, email string) (string, error)
	// CreateCheckoutSession returns the URL of a hosted checkout page
	// for the single subscription plan.
	CreateCheckoutSession(ctx context.Context, customerID string) (string, error)
	// CreatePortalSession returns the URL of the hosted billing portal.
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// WebhookDecoder authenticates a raw webhook payload against its signature
// header and decodes it into an Event. Signature failure is fatal to the
// request; it is the only authenticity gate these notifications have.
type WebhookDecoder interface {
	Decode(payload []byte, signatureHeader string) (*Event, error)
}
