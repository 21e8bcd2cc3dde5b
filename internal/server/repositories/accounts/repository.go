package accounts

import (
	"context"

	"github.com/dayli-app/api/internal/server/models"
)

// Repository persists accounts. The key-wrap material is deliberately kept
// off the Account model and behind its own getter/setter pair so that only
// the account service can touch it.
type Repository interface {
	Create(ctx context.Context, account *models.Account, wrap models.KeyWrap) (*models.Account, error)

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByLegacyUsername(ctx context.Context, username string) (*models.Account, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.Account, error)

	UpdateEmail(ctx context.Context, id string, email string) error
	UpdateCredential(ctx context.Context, id string, cred models.Credential) error
	TouchLastSeen(ctx context.Context, id string) error
	SetStripeCustomerID(ctx context.Context, id string, stripeCustomerID string) error

	GetKeyWrap(ctx context.Context, id string) (models.KeyWrap, error)
	SetKeyWrap(ctx context.Context, id string, wrap models.KeyWrap) error
}
