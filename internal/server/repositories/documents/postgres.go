package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/dbx"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Document, error) {
	var (
		doc   models.Document
		views sql.NullInt64
	)
	err := row.Scan(&doc.ID, &doc.Table, &doc.Title, &views, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if views.Valid {
		v := views.Int64
		doc.Views = &v
	}
	return &doc, nil
}

// GetByID loads a document by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT id, table_name, title, views, created_at FROM documents WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByTitle returns the oldest document of table whose title equals title.
func (r *PostgresRepository) FindByTitle(ctx context.Context, table, title string) (*models.Document, error) {
	query := `SELECT id, table_name, title, views, created_at FROM documents
		WHERE table_name = $1 AND title = $2
		ORDER BY created_at, id
		LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, table, title))
}

// SetViews overwrites the counter of document id.
func (r *PostgresRepository) SetViews(ctx context.Context, id string, views int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET views = $2 WHERE id = $1`, id, views)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Create inserts doc, or refreshes table and title when the id exists.
// The counter of an existing document is left untouched.
func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, table_name, title, views)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET table_name = EXCLUDED.table_name, title = EXCLUDED.title
		RETURNING created_at
	`
	var views sql.NullInt64
	if doc.Views != nil {
		views = sql.NullInt64{Int64: *doc.Views, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query, doc.ID, doc.Table, doc.Title, views).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
