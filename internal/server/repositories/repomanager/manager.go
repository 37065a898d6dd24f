package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/viewkeeper/internal/dbx"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/documents"
)

// RepositoryManager vends SQL-backed repositories bound to a DBTX and runs
// schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Documents(db dbx.DBTX) documents.Repository
}
