package posts

import (
	"context"

	"github.com/dayli-app/api/internal/server/models"
)

// Repository persists diary posts, one per (account, date). Payloads are
// stored as received; the server never inspects them.
type Repository interface {
	Upsert(ctx context.Context, post *models.Post) error
	GetByAccountAndDate(ctx context.Context, accountID, date string) (*models.Post, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Post, error)
	DeleteByAccountAndDate(ctx context.Context, accountID, date string) error
}
