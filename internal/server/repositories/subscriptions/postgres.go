// Package subscriptions provides the PostgreSQL-backed repository for the
// local mirror of billing-provider subscription state.
package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/models"
)

// PostgresRepository implements subscription storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Subscription, error) {
	query := `
		SELECT id, account_id, stripe_id, status, plan, plan_name, start_time, last_changed, end_time
		FROM subscriptions
		WHERE account_id = $1
	`

	s := &models.Subscription{}
	var endTime sql.NullTime
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&s.ID, &s.AccountID, &s.StripeID, &s.Status, &s.Plan, &s.PlanName,
		&s.StartTime, &s.LastChanged, &endTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	return s, nil
}

// Upsert inserts the account's subscription record or, when one exists,
// overwrites its provider id, status, and plan fields in place. start_time
// is set once at creation and never touched afterwards; last_changed moves
// on every write. The row-level upsert is what makes concurrent and
// duplicated provider deliveries safe without extra locking.
func (r *PostgresRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (account_id, stripe_id, status, plan, plan_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id)
		DO UPDATE SET
			stripe_id = EXCLUDED.stripe_id,
			status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			plan_name = EXCLUDED.plan_name,
			last_changed = now()
	`
	res, err := r.db.ExecContext(ctx, query,
		sub.AccountID, sub.StripeID, sub.Status, sub.Plan, sub.PlanName)
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

func (r *PostgresRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	query := `DELETE FROM subscriptions WHERE account_id = $1`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
