// Package accounts provides the PostgreSQL-backed repository for account
// rows, including the password credential and the opaque key-wrap material.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements account storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_scheme, password_hash, legacy_username, stripe_customer_id, joined, last_seen`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var legacyUsername, stripeCustomerID sql.NullString
	err := row.Scan(&a.ID, &a.Email, &a.Password.Scheme, &a.Password.Hash,
		&legacyUsername, &stripeCustomerID, &a.Joined, &a.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.LegacyUsername = legacyUsername.String
	a.StripeCustomerID = stripeCustomerID.String
	return a, nil
}

// Create inserts a new account together with its key-wrap material (stored
// exactly as received, or as NULLs when absent). A duplicate email maps to
// common.ErrorConflict via the unique index.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account, wrap models.KeyWrap) (*models.Account, error) {
	query := `
		INSERT INTO accounts (email, password_scheme, password_hash, ephemeral_key_salt, master_key, master_key_nonce)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, joined, last_seen
	`

	var salt, masterKey, nonce sql.NullString
	if !wrap.IsZero() {
		salt = sql.NullString{String: wrap.Salt, Valid: true}
		masterKey = sql.NullString{String: wrap.WrappedMasterKey, Valid: true}
		nonce = sql.NullString{String: wrap.Nonce, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.Password.Scheme, account.Password.Hash, salt, masterKey, nonce).
		Scan(&account.ID, &account.Joined, &account.LastSeen)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByLegacyUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE legacy_username = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE stripe_customer_id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, stripeCustomerID))
}

// UpdateEmail changes the account email. A collision with another account's
// email maps to common.ErrorConflict.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id string, email string) error {
	query := `UPDATE accounts SET email = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) UpdateCredential(ctx context.Context, id string, cred models.Credential) error {
	query := `UPDATE accounts SET password_scheme = $2, password_hash = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, cred.Scheme, cred.Hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) TouchLastSeen(ctx context.Context, id string) error {
	query := `UPDATE accounts SET last_seen = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) SetStripeCustomerID(ctx context.Context, id string, stripeCustomerID string) error {
	query := `UPDATE accounts SET stripe_customer_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, stripeCustomerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// GetKeyWrap returns the account's key-wrap material. An account without
// material yields a zero KeyWrap, not an error.
func (r *PostgresRepository) GetKeyWrap(ctx context.Context, id string) (models.KeyWrap, error) {
	query := `SELECT ephemeral_key_salt, master_key, master_key_nonce FROM accounts WHERE id = $1`

	var salt, masterKey, nonce sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&salt, &masterKey, &nonce)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.KeyWrap{}, common.ErrorNotFound
		}
		return models.KeyWrap{}, fmt.Errorf("db error: %w", err)
	}

	return models.KeyWrap{
		Salt:             salt.String,
		WrappedMasterKey: masterKey.String,
		Nonce:            nonce.String,
	}, nil
}

// SetKeyWrap replaces the key-wrap material as a whole triple. Passing a
// zero KeyWrap clears all three fields; partial triples are the caller's
// bug and are rejected upstream.
func (r *PostgresRepository) SetKeyWrap(ctx context.Context, id string, wrap models.KeyWrap) error {
	query := `UPDATE accounts SET ephemeral_key_salt = $2, master_key = $3, master_key_nonce = $4 WHERE id = $1`

	var salt, masterKey, nonce sql.NullString
	if !wrap.IsZero() {
		salt = sql.NullString{String: wrap.Salt, Valid: true}
		masterKey = sql.NullString{String: wrap.WrappedMasterKey, Valid: true}
		nonce = sql.NullString{String: wrap.Nonce, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, id, salt, masterKey, nonce)
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
