package models

import "time"

// SubscriptionStatusActive is the provider's canonical "entitled" status.
// Every other status value is stored opaquely.
const SubscriptionStatusActive = "active"

// Subscription is the local mirror of a billing-provider subscription,
// one-to-one with an account. The billing service is its only writer.
type Subscription struct {
	ID        string
	AccountID string

	// StripeID is the provider's subscription id.
	StripeID string
	Status   string

	Plan     string
	PlanName string

	StartTime   time.Time
	LastChanged time.Time
	EndTime     *time.Time
}

// Active reports whether this record grants entitlement.
func (s *Subscription) Active() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
