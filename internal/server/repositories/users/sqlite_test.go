package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/server/migrations"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:users?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SystemSQLite())
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return NewSQLiteRepository(db)
}

func TestSQLite_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	u, err := repo.Create(ctx, &models.User{Name: "alice", CreatedAt: 10})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Name: "alice", CreatedAt: 11})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	got, err = repo.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByAPIKeyHash(ctx, "h1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.AddAPIKey(ctx, u.ID, "h1", 20)
	require.NoError(t, err)
	_, err = repo.AddAPIKey(ctx, u.ID, "h1", 21)
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err = repo.GetByAPIKeyHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
