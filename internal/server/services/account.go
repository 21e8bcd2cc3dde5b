// Package services contains server-side business logic. This file implements
// AccountService, which guards the credential and key-hierarchy lifecycle:
// registration, login with migrate-on-read password upgrades, session token
// renewal, and profile updates.
//
// The zero-knowledge contract lives here: key-wrap material (salt, wrapped
// master key, nonce) passes through this service opaque and verbatim. The
// server never derives anything from it and no other service touches it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/auth"
	"github.com/dayli-app/api/internal/server/config"
	"github.com/dayli-app/api/internal/server/metrics"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/password"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
)

// LoginResult is everything a successful authentication hands back: the
// session token, the profile, the key-wrap material the client needs to
// unwrap its master key, and the current subscription record (nil if none).
type LoginResult struct {
	Token        string
	Account      *models.Account
	KeyWrap      models.KeyWrap
	Subscription *models.Subscription
}

// AccountUpdate describes a profile update. Nil fields are left untouched.
// KeyWrap is replaced only as a complete triple; partial replacement is
// rejected so salt, wrapped key, and nonce can never drift apart.
type AccountUpdate struct {
	Email    *string
	Password *string
	KeyWrap  *models.KeyWrap
}

// AccountService provides authentication-related operations:
// - Register: create accounts and store their key-wrap material
// - Login: verify credentials, upgrade legacy hashes, mint tokens
// - RenewToken: mint a fresh token for an already-authenticated account
// - Update: change email/password/key-wrap with uniqueness checks
type AccountService struct {
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	jwtSecret           []byte
	tokenValidityPeriod time.Duration
}

// NewAccountService constructs an AccountService using repositories and
// server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                  db,
		repomanager:         m,
		jwtSecret:           []byte(cfg.SecretKey),
		tokenValidityPeriod: cfg.SessionTokenValidityDuration,
	}
}

// Register creates a new account. The email is lower-cased before the
// uniqueness check; an existing account with the same email yields
// common.ErrorConflict. The key-wrap material must be a complete triple or
// entirely absent.
func (s *AccountService) Register(ctx context.Context, email, plainPassword string, wrap models.KeyWrap) (*models.Account, error) {
	email = strings.ToLower(email)
	if email == "" || plainPassword == "" {
		return nil, common.ErrorValidation
	}
	if !wrap.IsZero() && !wrap.Complete() {
		return nil, fmt.Errorf("%w: key-wrap fields must be provided together", common.ErrorValidation)
	}
	if !wrap.WithinBounds() {
		return nil, fmt.Errorf("%w: key-wrap field too long", common.ErrorValidation)
	}

	cred, err := password.Hash(plainPassword)
	if err != nil {
		return nil, common.ErrorInternal
	}

	account := &models.Account{Email: email, Password: cred}
	repo := s.repomanager.Accounts(s.db)

	a, err := repo.Create(ctx, account, wrap)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating account: %v", err)
	}
	return a, nil
}

// Login authenticates by email (lower-cased) or, failing that, by the
// pre-migration legacy username matched verbatim. Wrong password and
// unknown login collapse into the same common.ErrorUnauthorized so callers
// cannot distinguish them.
//
// A valid login against a legacy-scheme hash persists the upgraded hash in
// the same transaction that records last_seen.
func (s *AccountService) Login(ctx context.Context, login, plainPassword string) (*LoginResult, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, strings.ToLower(login))
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		account, err = repo.GetByLegacyUsername(ctx, login)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				metrics.LoginAttempts.WithLabelValues("failure").Inc()
				return nil, common.ErrorUnauthorized
			}
			return nil, common.ErrorInternal
		}
	}

	ok, rehash := password.Verify(plainPassword, account.Password)
	if !ok {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrorUnauthorized
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Accounts(tx)
		if rehash != nil {
			if err := repoTx.UpdateCredential(ctx, account.ID, *rehash); err != nil {
				return err
			}
			account.Password = *rehash
			metrics.CredentialUpgrades.Inc()
		}
		return repoTx.TouchLastSeen(ctx, account.ID)
	}); err != nil {
		return nil, common.ErrorInternal
	}

	token, err := auth.GenerateToken(account.ID, s.jwtSecret, s.tokenValidityPeriod)
	if err != nil {
		return nil, common.ErrorInternal
	}

	wrap, err := repo.GetKeyWrap(ctx, account.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	sub, err := s.currentSubscription(ctx, account.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, Account: account, KeyWrap: wrap, Subscription: sub}, nil
}

// RenewToken mints a fresh session token for an account that presented a
// still-valid token, and records the activity.
func (s *AccountService) RenewToken(ctx context.Context, accountID string) (string, error) {
	repo := s.repomanager.Accounts(s.db)
	if err := repo.TouchLastSeen(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(accountID, s.jwtSecret, s.tokenValidityPeriod)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetProfile returns the account and its subscription record (nil if none).
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*models.Account, *models.Subscription, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, common.ErrorInternal
	}

	sub, err := s.currentSubscription(ctx, accountID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	return account, sub, nil
}

// Update applies a profile update transactionally. An email change is
// re-validated for uniqueness against all other accounts; collision yields
// common.ErrorConflict. Password and key-wrap changes are full replacements.
func (s *AccountService) Update(ctx context.Context, accountID string, upd AccountUpdate) (*models.Account, error) {
	if upd.KeyWrap != nil && !upd.KeyWrap.IsZero() && !upd.KeyWrap.Complete() {
		return nil, fmt.Errorf("%w: key-wrap fields must be replaced together", common.ErrorValidation)
	}
	if upd.KeyWrap != nil && !upd.KeyWrap.WithinBounds() {
		return nil, fmt.Errorf("%w: key-wrap field too long", common.ErrorValidation)
	}

	var newCred *models.Credential
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, common.ErrorValidation
		}
		cred, err := password.Hash(*upd.Password)
		if err != nil {
			return nil, common.ErrorInternal
		}
		newCred = &cred
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Accounts(tx)

		if upd.Email != nil {
			email := strings.ToLower(*upd.Email)
			if email == "" {
				return common.ErrorValidation
			}
			current, err := repoTx.GetByID(ctx, accountID)
			if err != nil {
				return err
			}
			if email != current.Email {
				if err := repoTx.UpdateEmail(ctx, accountID, email); err != nil {
					return err
				}
			}
		}

		if newCred != nil {
			if err := repoTx.UpdateCredential(ctx, accountID, *newCred); err != nil {
				return err
			}
		}

		if upd.KeyWrap != nil {
			if err := repoTx.SetKeyWrap(ctx, accountID, *upd.KeyWrap); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorConflict):
			return nil, common.ErrorConflict
		case errors.Is(err, common.ErrorValidation):
			return nil, err
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorNotFound
		default:
			return nil, common.ErrorInternal
		}
	}

	return s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
}

func (s *AccountService) currentSubscription(ctx context.Context, accountID string) (*models.Subscription, error) {
	sub, err := s.repomanager.Subscriptions(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
