package items

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

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Tenant())
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return NewSQLiteRepository(db)
}

func ptr(s string) *string { return &s }

func insert(t *testing.T, r *SQLiteRepository, id, syncID string, updated int64) *models.Item {
	t.Helper()
	it := &models.Item{ID: id, Type: "url", Content: ptr("c-" + id), SyncID: syncID, CreatedAt: updated, UpdatedAt: updated}
	require.NoError(t, r.Insert(context.Background(), it))
	return it
}

func ids(items []*models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	it := &models.Item{Type: "text", Content: nil, CreatedAt: 1, UpdatedAt: 1}
	require.NoError(t, r.Insert(ctx, it))
	assert.Len(t, it.ID, 36)

	got, err := r.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Content)
	assert.Equal(t, "{}", got.Metadata)
	assert.Equal(t, []string{}, got.Tags)

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListAndSince(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	insert(t, r, "a", "", 100)
	insert(t, r, "b", "", 300)
	insert(t, r, "c", "", 200)
	require.NoError(t, r.SoftDelete(ctx, "c", 400))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(all))

	since, err := r.ListSince(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(since))

	_, err = r.Get(ctx, "c")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, r.SoftDelete(ctx, "c", 500), common.ErrorNotFound)
}

func TestFindBySyncID(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	insert(t, r, "srv-1", "local-1", 10)
	insert(t, r, "local-2", "", 10)
	insert(t, r, "srv-3", "local-2", 20)

	got, err := r.FindBySyncID(ctx, "local-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ID)

	got, err = r.FindBySyncID(ctx, "local-2")
	require.NoError(t, err)
	assert.Equal(t, "local-2", got.ID, "direct id match wins")

	_, err = r.FindBySyncID(ctx, "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	it := insert(t, r, "a", "", 10)

	it.Content = ptr("new")
	it.Metadata = `{"k":1}`
	it.UpdatedAt = 50
	require.NoError(t, r.Update(ctx, it))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", *got.Content)
	assert.Equal(t, `{"k":1}`, got.Metadata)
	assert.Equal(t, int64(10), got.CreatedAt)
	assert.Equal(t, int64(50), got.UpdatedAt)

	require.ErrorIs(t, r.Update(ctx, &models.Item{ID: "zzz"}), common.ErrorNotFound)
}

func TestReplaceTags(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	insert(t, r, "a", "", 10)
	insert(t, r, "b", "", 10)

	require.NoError(t, r.ReplaceTags(ctx, "a", []string{"go", " ", "Read", "GO"}, 1))
	names, err := r.TagNames(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "Read"}, names)

	require.NoError(t, r.ReplaceTags(ctx, "b", []string{"read"}, 2))
	names, err = r.TagNames(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"Read"}, names, "existing tag is reused regardless of case")

	require.NoError(t, r.ReplaceTags(ctx, "a", nil, 3))
	names, err = r.TagNames(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, names)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
