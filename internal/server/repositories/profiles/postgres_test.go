package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var cols = []string{"id", "user_id", "slug", "name", "created_at", "last_used_at", "is_default"}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+profiles\s*\(id,\s*user_id,\s*slug,\s*name,\s*created_at,\s*last_used_at,\s*is_default\)\s*VALUES\s*\(\$1,.*\$7\)\s*$`).
		WithArgs(sqlmock.AnyArg(), "u-1", "work", "Work", int64(5), int64(0), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := repo.Create(context.Background(), &models.Profile{UserID: "u-1", Slug: "work", Name: "Work", CreatedAt: 5})
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+profiles`).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Profile{ID: "p", UserID: "u-1", Slug: "work"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetBySlug(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+slug\s*=\s*\$2\s*$`).
		WithArgs("u-1", "default").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("p-1", "u-1", "default", "Default", int64(1), int64(2), true))

	p, err := repo.GetBySlug(context.Background(), "u-1", "default")
	require.NoError(t, err)
	assert.Equal(t, &models.Profile{ID: "p-1", UserID: "u-1", Slug: "default", Name: "Default", CreatedAt: 1, LastUsedAt: 2, IsDefault: true}, p)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`).
		WithArgs("u-1", "p-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "u-1", "p-x")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+is_default\s+DESC,\s*created_at\s+ASC`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p-1", "u-1", "default", "Default", int64(1), int64(0), true).
			AddRow("p-2", "u-1", "work", "Work", int64(2), int64(0), false))

	list, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "work", list[1].Slug)
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+profiles`).WillReturnError(errors.New("db down"))

	_, err := repo.ListByUser(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestTouch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+profiles\s+SET\s+last_used_at\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	mock.ExpectExec(q).WithArgs(int64(9), "p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(9), "p-x").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Touch(context.Background(), "p-1", 9))
	require.ErrorIs(t, repo.Touch(context.Background(), "p-x", 9), common.ErrorNotFound)
}
