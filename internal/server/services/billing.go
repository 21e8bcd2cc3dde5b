package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/billing"
	"github.com/dayli-app/api/internal/server/metrics"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
)

// Entitlement logic does not distinguish plan tiers yet; every subscription
// gets the fixed default plan.
const (
	defaultPlan     = "standard"
	defaultPlanName = "Standard subscription"
)

// BillingService reconciles provider subscription events into local state
// and answers the entitlement question. It is the only writer of
// subscription records.
type BillingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    billing.Provider
	decoder     billing.WebhookDecoder
}

// NewBillingService constructs a BillingService around the injected
// provider client and webhook decoder.
func NewBillingService(db *sql.DB, m repomanager.RepositoryManager, provider billing.Provider, decoder billing.WebhookDecoder) *BillingService {
	return &BillingService{
		db:          db,
		repomanager: m,
		provider:    provider,
		decoder:     decoder,
	}
}

// HandleWebhookEvent verifies and applies one provider notification.
//
// The handler is idempotent by construction: "updated" events create-or-
// overwrite the account's single subscription row and "deleted" events
// remove it if present, so retried and duplicated deliveries converge to
// the same state. Two "updated" events delivered out of order are not
// sequenced by event time; the last applied write wins.
//
// Failures: bad signature -> common.ErrorSignatureInvalid, customer with no
// local account -> common.ErrorNotFound, any other event type ->
// common.ErrorUnhandledEventType. All are surfaced, never swallowed, so
// provider contract drift stays visible.
func (s *BillingService) HandleWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := s.decoder.Decode(payload, signatureHeader)
	if err != nil {
		if errors.Is(err, common.ErrorSignatureInvalid) {
			metrics.WebhookEvents.WithLabelValues("unknown", metrics.OutcomeSignatureInvalid).Inc()
			return common.ErrorSignatureInvalid
		}
		metrics.WebhookEvents.WithLabelValues("unknown", metrics.OutcomeError).Inc()
		return fmt.Errorf("error decoding webhook event: %v", err)
	}

	eventType := string(ev.Type)

	switch ev.Type {
	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
	default:
		metrics.WebhookEvents.WithLabelValues(eventType, metrics.OutcomeUnhandledType).Inc()
		return fmt.Errorf("%w: %s", common.ErrorUnhandledEventType, ev.Type)
	}

	account, err := s.repomanager.Accounts(s.db).GetByStripeCustomerID(ctx, ev.CustomerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.WebhookEvents.WithLabelValues(eventType, metrics.OutcomeUnknownCustomer).Inc()
			return fmt.Errorf("%w: no account for billing customer", common.ErrorNotFound)
		}
		metrics.WebhookEvents.WithLabelValues(eventType, metrics.OutcomeError).Inc()
		return common.ErrorInternal
	}

	subs := s.repomanager.Subscriptions(s.db)

	switch ev.Type {
	case billing.EventSubscriptionUpdated:
		err = subs.Upsert(ctx, &models.Subscription{
			AccountID: account.ID,
			StripeID:  ev.SubscriptionID,
			Status:    ev.Status,
			Plan:      defaultPlan,
			PlanName:  defaultPlanName,
		})
	case billing.EventSubscriptionDeleted:
		err = subs.DeleteByAccountID(ctx, account.ID)
	}
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(eventType, metrics.OutcomeError).Inc()
		return common.ErrorInternal
	}

	metrics.WebhookEvents.WithLabelValues(eventType, metrics.OutcomeApplied).Inc()
	return nil
}

// HasActiveEntitlement reports whether the account currently has a
// subscription record in the provider's canonical "active" status. The
// answer is read fresh from storage on every call; webhook events can flip
// it at any moment, so it must never be cached across requests.
func (s *BillingService) HasActiveEntitlement(ctx context.Context, accountID string) (bool, error) {
	sub, err := s.repomanager.Subscriptions(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, common.ErrorInternal
	}
	return sub.Active(), nil
}

// Subscribe returns the URL of a hosted checkout session for the account,
// lazily registering the account with the provider on first use.
func (s *BillingService) Subscribe(ctx context.Context, accountID string) (string, error) {
	customerID, err := s.ensureCustomer(ctx, accountID)
	if err != nil {
		return "", err
	}
	return s.provider.CreateCheckoutSession(ctx, customerID)
}

// Portal returns the URL of the provider's hosted billing portal for the
// account, lazily registering the account with the provider on first use.
func (s *BillingService) Portal(ctx context.Context, accountID string) (string, error) {
	customerID, err := s.ensureCustomer(ctx, accountID)
	if err != nil {
		return "", err
	}
	return s.provider.CreatePortalSession(ctx, customerID)
}

func (s *BillingService) ensureCustomer(ctx context.Context, accountID string) (string, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	if account.StripeCustomerID != "" {
		return account.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, account.Email)
	if err != nil {
		return "", err
	}
	if err := repo.SetStripeCustomerID(ctx, accountID, customerID); err != nil {
		return "", common.ErrorInternal
	}
	return customerID, nil
}
