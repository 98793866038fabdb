package repomanager

import (
	"context"
	"database/sql"

	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/server/repositories/categories"
	"github.com/streamfi/streamfi/internal/server/repositories/sessions"
	"github.com/streamfi/streamfi/internal/server/repositories/tags"
	"github.com/streamfi/streamfi/internal/server/repositories/users"
	"github.com/streamfi/streamfi/internal/server/repositories/verificationtokens"
	"github.com/streamfi/streamfi/internal/server/repositories/viewers"
)

// RepositoryManager vends per-entity repositories bound to a DBTX, so the
// same repository code runs against *sql.DB or inside a dbx.WithTx block.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Viewers(db dbx.DBTX) viewers.Repository
	Categories(db dbx.DBTX) categories.Repository
	Tags(db dbx.DBTX) tags.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
}
