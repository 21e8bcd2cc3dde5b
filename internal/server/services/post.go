package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
)

const postDateLayout = "2006-01-02"

// PostService stores and serves diary entries. Payloads pass through
// opaquely; the only server-side checks are structural.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

func validatePost(post *models.Post) error {
	if _, err := time.Parse(postDateLayout, post.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrorValidation)
	}
	switch post.FormatVersion {
	case models.PostFormatLegacy:
	case models.PostFormatEncrypted:
		if post.Nonce == "" {
			return fmt.Errorf("%w: encrypted posts require a nonce", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: unknown format version %d", common.ErrorValidation, post.FormatVersion)
	}
	if len(post.Data) == 0 {
		return fmt.Errorf("%w: empty payload", common.ErrorValidation)
	}
	return nil
}

// Save creates or replaces the account's entry for the post's date.
func (s *PostService) Save(ctx context.Context, post *models.Post) error {
	if err := validatePost(post); err != nil {
		return err
	}
	if err := s.repomanager.Posts(s.db).Upsert(ctx, post); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// Get returns the account's entry for one date.
func (s *PostService) Get(ctx context.Context, accountID, date string) (*models.Post, error) {
	if _, err := time.Parse(postDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrorValidation)
	}
	post, err := s.repomanager.Posts(s.db).GetByAccountAndDate(ctx, accountID, date)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return post, nil
}

// List returns all of the account's entries, newest first.
func (s *PostService) List(ctx context.Context, accountID string) ([]*models.Post, error) {
	list, err := s.repomanager.Posts(s.db).ListByAccount(ctx, accountID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Delete removes the account's entry for one date.
func (s *PostService) Delete(ctx context.Context, accountID, date string) error {
	if _, err := time.Parse(postDateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrorValidation)
	}
	err := s.repomanager.Posts(s.db).DeleteByAccountAndDate(ctx, accountID, date)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}
