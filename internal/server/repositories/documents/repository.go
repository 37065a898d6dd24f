// Package documents provides the document stores behind the Counter API:
// PostgreSQL, Redis and an in-memory implementation. All of them resolve
// documents by id or by an exact (table, title) match and expose a plain
// "set views" write; none offers an atomic add, so read-modify-write
// callers race by construction.
package documents

import (
	"context"

	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
)

// Repository is the document-store contract used by the counter service.
//
// GetByID and FindByTitle return common.ErrorNotFound when nothing matches.
// FindByTitle is case-sensitive; when several documents share a title the
// oldest (created_at, then id) wins.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	FindByTitle(ctx context.Context, table, title string) (*models.Document, error)
	SetViews(ctx context.Context, id string, views int64) error
	Create(ctx context.Context, doc *models.Document) error
}
