package subscriptions

import (
	"context"

	"github.com/dayli-app/api/internal/server/models"
)

// Repository persists subscription records, one per account. The billing
// service is the only writer; everything else reads.
type Repository interface {
	GetByAccountID(ctx context.Context, accountID string) (*models.Subscription, error)
	// Upsert creates the account's record or overwrites the mutable
	// fields in place, so replayed provider events converge instead of
	// duplicating rows.
	Upsert(ctx context.Context, sub *models.Subscription) error
	// DeleteByAccountID removes the record. Deleting an absent record is
	// a no-op, to stay idempotent under provider retries.
	DeleteByAccountID(ctx context.Context, accountID string) error
}
