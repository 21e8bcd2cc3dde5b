// Package posts provides the PostgreSQL-backed repository for diary post
// envelopes (format tag + nonce + opaque payload).
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/models"
)

// PostgresRepository implements post storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes the entry for (account, date), overwriting the payload when
// the day already has one. The composite unique index enforces one post per
// account per calendar day.
func (r *PostgresRepository) Upsert(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (account_id, date, format_version, nonce, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, date)
		DO UPDATE SET
			format_version = EXCLUDED.format_version,
			nonce = EXCLUDED.nonce,
			data = EXCLUDED.data,
			last_changed = now()
	`
	res, err := r.db.ExecContext(ctx, query,
		post.AccountID, post.Date, post.FormatVersion, post.Nonce, post.Data)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func scanPost(row *sql.Row) (*models.Post, error) {
	p := &models.Post{}
	var nonce sql.NullString
	err := row.Scan(&p.ID, &p.AccountID, &p.Date, &p.FormatVersion, &nonce, &p.Data, &p.Created, &p.LastChanged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Nonce = nonce.String
	return p, nil
}

func (r *PostgresRepository) GetByAccountAndDate(ctx context.Context, accountID, date string) (*models.Post, error) {
	query := `
		SELECT id, account_id, date, format_version, nonce, data, created, last_changed
		FROM posts
		WHERE account_id = $1 AND date = $2
	`
	return scanPost(r.db.QueryRowContext(ctx, query, accountID, date))
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Post, error) {
	query := `
		SELECT id, account_id, date, format_version, nonce, data, created, last_changed
		FROM posts
		WHERE account_id = $1
		ORDER BY date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		p := &models.Post{}
		var nonce sql.NullString
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Date, &p.FormatVersion, &nonce, &p.Data, &p.Created, &p.LastChanged); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Nonce = nonce.String
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByAccountAndDate(ctx context.Context, accountID, date string) error {
	query := `DELETE FROM posts WHERE account_id = $1 AND date = $2`
	res, err := r.db.ExecContext(ctx, query, accountID, date)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
