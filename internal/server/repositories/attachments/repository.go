package attachments

import (
	"context"

	"github.com/dayli-app/api/internal/server/models"
)

// Repository persists attachment metadata. The ciphertext itself lives in
// object storage under Attachment.StorageKey.
type Repository interface {
	Create(ctx context.Context, att *models.Attachment) (*models.Attachment, error)
	GetByID(ctx context.Context, accountID, id string) (*models.Attachment, error)
	ListByPost(ctx context.Context, accountID, postID string) ([]*models.Attachment, error)
	MarkCompleted(ctx context.Context, accountID, id string) error
	Delete(ctx context.Context, accountID, id string) error
}
