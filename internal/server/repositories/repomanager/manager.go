package repomanager

import (
	"context"
	"database/sql"

	"github.com/aleksv/spendsync/internal/dbx"
	"github.com/aleksv/spendsync/internal/server/repositories/records"
	"github.com/aleksv/spendsync/internal/server/repositories/refreshtokens"
	"github.com/aleksv/spendsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Records(db dbx.DBTX) records.Repository
}
