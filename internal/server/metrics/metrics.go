// Package metrics exposes Prometheus counters for the outcomes operators
// care about: login attempts and webhook reconciliation results. Contract
// drift with the billing provider (bad signatures, unhandled event types)
// shows up here instead of disappearing into silent entitlement staleness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts authentication attempts by outcome
	// ("success", "failure").
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayli",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"outcome"})

	// CredentialUpgrades counts legacy password hashes upgraded during
	// a successful login.
	CredentialUpgrades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dayli",
		Subsystem: "auth",
		Name:      "credential_upgrades_total",
		Help:      "Password hashes migrated to the current scheme on login.",
	})

	// WebhookEvents counts billing webhook deliveries by event type and
	// outcome ("applied", "signature_invalid", "unhandled_type",
	// "unknown_customer", "error").
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayli",
		Subsystem: "billing",
		Name:      "webhook_events_total",
		Help:      "Billing provider webhook deliveries by type and outcome.",
	}, []string{"event_type", "outcome"})
)

// Webhook outcome labels.
const (
	OutcomeApplied          = "applied"
	OutcomeSignatureInvalid = "signature_invalid"
	OutcomeUnhandledType    = "unhandled_type"
	OutcomeUnknownCustomer  = "unknown_customer"
	OutcomeError            = "error"
)
