// Package attachments provides the PostgreSQL-backed repository for
// attachment metadata. Every query is scoped by account id so one account
// can never address another account's blobs.
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/models"
)

// PostgresRepository implements attachment storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, att *models.Attachment) (*models.Attachment, error) {
	query := `
		INSERT INTO attachments (post_id, account_id, storage_key, nonce, upload_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		att.PostID, att.AccountID, att.StorageKey, att.Nonce, att.UploadStatus).Scan(&att.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return att, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, accountID, id string) (*models.Attachment, error) {
	query := `
		SELECT id, post_id, account_id, storage_key, nonce, upload_status
		FROM attachments
		WHERE account_id = $1 AND id = $2
	`

	att := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, accountID, id).Scan(
		&att.ID, &att.PostID, &att.AccountID, &att.StorageKey, &att.Nonce, &att.UploadStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return att, nil
}

func (r *PostgresRepository) ListByPost(ctx context.Context, accountID, postID string) ([]*models.Attachment, error) {
	query := `
		SELECT id, post_id, account_id, storage_key, nonce, upload_status
		FROM attachments
		WHERE account_id = $1 AND post_id = $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		att := &models.Attachment{}
		if err := rows.Scan(&att.ID, &att.PostID, &att.AccountID, &att.StorageKey, &att.Nonce, &att.UploadStatus); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, accountID, id string) error {
	query := `UPDATE attachments SET upload_status = $3 WHERE account_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, accountID, id, models.AttachmentUploadCompleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID, id string) error {
	query := `DELETE FROM attachments WHERE account_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, accountID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
