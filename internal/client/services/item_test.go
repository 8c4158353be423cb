package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store/storetest"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemService_AddGetList(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	svc := NewItemService(newTestStore(t, clock))

	id, err := svc.Add(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("note")}, []string{"b", "a", "A"})
	require.NoError(t, err)

	v, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "note", *v.Item.Content)
	assert.Equal(t, []string{"a", "b"}, v.Tags)

	list, err := svc.List(ctx, models.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].Item.ID)
}

func TestItemService_TagUntag(t *testing.T) {
	ctx := context.Background()
	svc := NewItemService(newTestStore(t, storetest.NewClock(t0)))

	id, err := svc.Add(ctx, models.ItemTypeURL, models.ItemOptions{Content: ptr("https://x")}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Tag(ctx, id, "work", "later"))
	require.NoError(t, svc.Untag(ctx, id, "WORK", "unknown"))

	v, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, v.Tags)

	tags, err := svc.Tags(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	require.ErrorIs(t, svc.Tag(ctx, "item_missing", "x"), common.ErrorNotFound)
}

func TestItemService_Delete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, storetest.NewClock(t0))
	svc := NewItemService(st)

	soft, err := svc.Add(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")}, []string{"x"})
	require.NoError(t, err)
	hard, err := svc.Add(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("b")}, []string{"x"})
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, soft, false)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Delete(ctx, hard, true)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := st.QueryItems(ctx, models.ItemFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, soft, all[0].ID)
}
