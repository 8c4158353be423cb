package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertUserQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("u-1", "alice", int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.User{ID: "u-1", Name: "alice", CreatedAt: 1000})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.Name != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs(sqlmock.AnyArg(), "bob", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.User{Name: "bob", CreatedAt: 1})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(got.ID) != 36 {
		t.Fatalf("expected a uuid, got %q", got.ID)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Name: "alice"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Name: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByAPIKeyHash_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+u\.id,\s*u\.name,\s*u\.created_at\s+FROM\s+users\s+u\s+JOIN\s+api_keys\s+k\s+ON\s+k\.user_id\s*=\s*u\.id\s+WHERE\s+k\.key_hash\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("u-1", "alice", int64(7)))

	u, err := repo.GetByAPIKeyHash(context.Background(), "hash")
	if err != nil {
		t.Fatalf("GetByAPIKeyHash error: %v", err)
	}
	if u.ID != "u-1" || u.Name != "alice" || u.CreatedAt != 7 {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByName_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*created_at\s+FROM\s+users\s+WHERE\s+name\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("alice").WillReturnError(errors.New("boom"))

	_, err := repo.GetByName(context.Background(), "alice")
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestAddAPIKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+api_keys\s*\(id,\s*user_id,\s*key_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "u-1", "hash", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	k, err := repo.AddAPIKey(context.Background(), "u-1", "hash", 5)
	if err != nil {
		t.Fatalf("AddAPIKey error: %v", err)
	}
	if k.UserID != "u-1" || k.KeyHash != "hash" || k.ID == "" {
		t.Fatalf("unexpected key: %+v", k)
	}
}
