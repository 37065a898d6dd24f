package documents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docColumns = []string{"id", "table_name", "title", "views", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, table_name, title, views, created_at FROM documents WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow("p1", "posts", "Hello", int64(5), created))

	doc, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Title)
	assert.EqualValues(t, 5, doc.ViewCount())
	assert.Equal(t, created, doc.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NullViews(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM documents WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow("p1", "posts", "Hello", nil, time.Now()))

	doc, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, doc.Views)
	assert.EqualValues(t, 0, doc.ViewCount())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM documents WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(docColumns))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM documents WHERE id = \$1`).
		WithArgs("p1").
		WillReturnError(errors.New("db is down"))

	_, err := repo.GetByID(context.Background(), "p1")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db is down`, err.Error())
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestFindByTitle_OrdersAndLimits(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := regexp.MustCompile(`WHERE table_name = \$1 AND title = \$2\s+ORDER BY created_at, id\s+LIMIT 1`)
	mock.ExpectQuery(q.String()).
		WithArgs("posts", "Hello").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow("p1", "posts", "Hello", int64(2), time.Now()))

	doc, err := repo.FindByTitle(context.Background(), "posts", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTitle_Missing(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE table_name = \$1 AND title = \$2`).
		WithArgs("posts", "Missing Post").
		WillReturnRows(sqlmock.NewRows(docColumns))

	_, err := repo.FindByTitle(context.Background(), "posts", "Missing Post")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestSetViews(t *testing.T) {
	tests := []struct {
		name    string
		res     driverResult
		wantErr string
		isNF    bool
	}{
		{name: "updated", res: driverResult{rows: 1}},
		{name: "missing", res: driverResult{rows: 0}, isNF: true},
		{name: "too many", res: driverResult{rows: 2}, wantErr: "unexpected rows affected: 2"},
		{name: "rows error", res: driverResult{err: errors.New("rows-err")}, wantErr: "rows affected error: rows-err"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := newRepoWithMock(t)

			exp := mock.ExpectExec(`UPDATE documents SET views = \$2 WHERE id = \$1`).WithArgs("p1", int64(6))
			if tt.res.err != nil {
				exp.WillReturnResult(sqlmock.NewErrorResult(tt.res.err))
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.res.rows))
			}

			err := repo.SetViews(context.Background(), "p1", 6)
			switch {
			case tt.isNF:
				assert.True(t, errors.Is(err, common.ErrorNotFound))
			case tt.wantErr != "":
				assert.EqualError(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

type driverResult struct {
	rows int64
	err  error
}

func TestSetViews_ExecError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE documents`).WithArgs("p1", int64(1)).WillReturnError(errors.New("conn reset"))

	err := repo.SetViews(context.Background(), "p1", 1)
	assert.Regexp(t, `db error: .*conn reset`, err.Error())
}

func TestCreate_Upserts(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO documents .* ON CONFLICT \(id\)\s+DO UPDATE SET table_name = EXCLUDED.table_name, title = EXCLUDED.title\s+RETURNING created_at`).
		WithArgs("p1", "posts", "Hello", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	doc := &models.Document{ID: "p1", Table: "posts", Title: "Hello"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.Equal(t, created, doc.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
