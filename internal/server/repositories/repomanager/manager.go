// Package repomanager groups repository factories behind one interface so
// services can obtain repositories bound to either a *sql.DB or an open
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/repositories/accounts"
	"github.com/dayli-app/api/internal/server/repositories/attachments"
	"github.com/dayli-app/api/internal/server/repositories/posts"
	"github.com/dayli-app/api/internal/server/repositories/subscriptions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	Posts(db dbx.DBTX) posts.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
