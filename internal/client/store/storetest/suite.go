// Package storetest holds the behavioural suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store whose clock is now.
type Factory func(t *testing.T, now func() int64) store.Store

const start int64 = 1_700_000_000_000

func ptr[T any](v T) *T { return &v }

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	setup := func(t *testing.T) (store.Store, *Clock) {
		t.Helper()
		clock := NewClock(start)
		s := newStore(t, clock.Now)
		t.Cleanup(func() { _ = s.Close() })
		return s, clock
	}

	t.Run("AddAndGetItem", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeURL, models.ItemOptions{Content: ptr("https://example.com")})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		it, err := s.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ItemTypeURL, it.Type)
		require.NotNil(t, it.Content)
		assert.Equal(t, "https://example.com", *it.Content)
		assert.Equal(t, "{}", it.Metadata)
		assert.Equal(t, start, it.CreatedAt)
		assert.Equal(t, start, it.UpdatedAt)
		assert.Zero(t, it.DeletedAt)
		assert.Empty(t, it.SyncSource)
	})

	t.Run("AddItemRejectsBadInput", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		_, err := s.AddItem(ctx, models.ItemType("video"), models.ItemOptions{})
		require.ErrorIs(t, err, common.ErrorValidation)

		_, err = s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Metadata: ptr(`[1,2]`)})
		require.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("NullContentSurvives", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeTagset, models.ItemOptions{})
		require.NoError(t, err)

		it, err := s.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, it.Content)
	})

	t.Run("GetMissingItem", func(t *testing.T) {
		s, _ := setup(t)
		_, err := s.GetItem(context.Background(), "item_missing")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("UpdateItemMergesMetadata", func(t *testing.T) {
		s, clock := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{
			Content:  ptr("a"),
			Metadata: ptr(`{"x":1,"y":"keep"}`),
		})
		require.NoError(t, err)

		clock.Advance(1000)
		ok, err := s.UpdateItem(ctx, id, models.ItemOptions{Content: ptr("b"), Metadata: ptr(`{"x":2,"z":true}`)})
		require.NoError(t, err)
		require.True(t, ok)

		it, err := s.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "b", *it.Content)
		assert.Equal(t, start+1000, it.UpdatedAt)
		assert.Equal(t, start, it.CreatedAt)

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(it.Metadata), &m))
		assert.Equal(t, map[string]any{"x": float64(2), "y": "keep", "z": true}, m)
	})

	t.Run("UpdateItemNoop", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)

		ok, err := s.UpdateItem(ctx, id, models.ItemOptions{})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.UpdateItem(ctx, "item_missing", models.ItemOptions{Content: ptr("b")})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("SoftDelete", func(t *testing.T) {
		s, clock := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)

		clock.Advance(10)
		ok, err := s.DeleteItem(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = s.GetItem(ctx, id)
		require.ErrorIs(t, err, common.ErrorNotFound)

		ok, err = s.DeleteItem(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)

		items, err := s.QueryItems(ctx, models.ItemFilter{IncludeDeleted: true})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, start+10, items[0].DeletedAt)
		assert.Equal(t, start+10, items[0].UpdatedAt)
	})

	t.Run("HardDeletePurgesLinks", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)
		tag, _, err := s.GetOrCreateTag(ctx, "work")
		require.NoError(t, err)
		_, _, err = s.TagItem(ctx, id, tag.ID)
		require.NoError(t, err)

		ok, err := s.HardDeleteItem(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)

		items, err := s.QueryItems(ctx, models.ItemFilter{IncludeDeleted: true})
		require.NoError(t, err)
		assert.Empty(t, items)

		tags, err := s.GetItemTags(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, tags)

		byTag, err := s.GetItemsByTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Empty(t, byTag)

		ok, err = s.HardDeleteItem(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("QueryItemsFilters", func(t *testing.T) {
		s, clock := setup(t)
		ctx := context.Background()

		a, err := s.AddItem(ctx, models.ItemTypeURL, models.ItemOptions{Content: ptr("u"), Starred: ptr(true)})
		require.NoError(t, err)
		clock.Advance(1)
		b, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("t")})
		require.NoError(t, err)
		clock.Advance(1)
		c, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("t2"), Archived: ptr(true)})
		require.NoError(t, err)

		all, err := s.QueryItems(ctx, models.ItemFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{c, b, a}, ids(all))

		texts, err := s.QueryItems(ctx, models.ItemFilter{Type: models.ItemTypeText})
		require.NoError(t, err)
		assert.Equal(t, []string{c, b}, ids(texts))

		starred, err := s.QueryItems(ctx, models.ItemFilter{Starred: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, []string{a}, ids(starred))

		unarchived, err := s.QueryItems(ctx, models.ItemFilter{Archived: ptr(false)})
		require.NoError(t, err)
		assert.Equal(t, []string{b, a}, ids(unarchived))

		limited, err := s.QueryItems(ctx, models.ItemFilter{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{c}, ids(limited))

		clock.Advance(1)
		_, err = s.UpdateItem(ctx, a, models.ItemOptions{Content: ptr("u2")})
		require.NoError(t, err)
		byUpdated, err := s.QueryItems(ctx, models.ItemFilter{SortBy: models.SortByUpdated})
		require.NoError(t, err)
		assert.Equal(t, []string{a, c, b}, ids(byUpdated))
	})

	t.Run("TagsAreCaseInsensitive", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		t1, created, err := s.GetOrCreateTag(ctx, "  Work ")
		require.NoError(t, err)
		require.True(t, created)
		assert.Equal(t, "Work", t1.Name)
		assert.Equal(t, "work", t1.Slug)
		assert.Equal(t, models.DefaultTagColor, t1.Color)

		t2, created, err := s.GetOrCreateTag(ctx, "work")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, t1.ID, t2.ID)

		e1, created, err := s.GetOrCreateTag(ctx, "Éclair")
		require.NoError(t, err)
		require.True(t, created)
		e2, created, err := s.GetOrCreateTag(ctx, "éCLAIR")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, e1.ID, e2.ID)
		assert.Equal(t, "Éclair", e2.Name)

		_, _, err = s.GetOrCreateTag(ctx, "   ")
		require.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("TagItemBumpsFrecencyOnce", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)
		tag, _, err := s.GetOrCreateTag(ctx, "read later")
		require.NoError(t, err)

		l1, existed, err := s.TagItem(ctx, id, tag.ID)
		require.NoError(t, err)
		assert.False(t, existed)

		l2, existed, err := s.TagItem(ctx, id, tag.ID)
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, l1.ID, l2.ID)

		tags, err := s.GetItemTags(ctx, id)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, int64(1), tags[0].Frequency)
		assert.Equal(t, start, tags[0].LastUsedAt)
		assert.Equal(t, int64(10), tags[0].FrecencyScore)
	})

	t.Run("UntagAndClear", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)
		for _, name := range []string{"b", "a", "c"} {
			tag, _, err := s.GetOrCreateTag(ctx, name)
			require.NoError(t, err)
			_, _, err = s.TagItem(ctx, id, tag.ID)
			require.NoError(t, err)
		}

		tags, err := s.GetItemTags(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, names(tags))

		ok, err := s.UntagItem(ctx, id, tags[0].ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.UntagItem(ctx, id, tags[0].ID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.ClearItemTags(ctx, id))
		tags, err = s.GetItemTags(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("ItemsByTagSkipsDeleted", func(t *testing.T) {
		s, clock := setup(t)
		ctx := context.Background()

		tag, _, err := s.GetOrCreateTag(ctx, "x")
		require.NoError(t, err)
		a, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)
		clock.Advance(1)
		b, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("b")})
		require.NoError(t, err)
		for _, id := range []string{a, b} {
			_, _, err = s.TagItem(ctx, id, tag.ID)
			require.NoError(t, err)
		}

		items, err := s.GetItemsByTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{b, a}, ids(items))

		_, err = s.DeleteItem(ctx, b)
		require.NoError(t, err)
		items, err = s.GetItemsByTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a}, ids(items))
	})

	t.Run("TagsByFrecency", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id1, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("1")})
		require.NoError(t, err)
		id2, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("2")})
		require.NoError(t, err)

		hot, _, err := s.GetOrCreateTag(ctx, "hot")
		require.NoError(t, err)
		warm, _, err := s.GetOrCreateTag(ctx, "warm")
		require.NoError(t, err)
		_, _, err = s.GetOrCreateTag(ctx, "cold")
		require.NoError(t, err)

		for _, id := range []string{id1, id2} {
			_, _, err = s.TagItem(ctx, id, hot.ID)
			require.NoError(t, err)
		}
		_, _, err = s.TagItem(ctx, id1, warm.ID)
		require.NoError(t, err)

		tags, err := s.TagsByFrecency(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"hot", "warm", "cold"}, names(tags))
		assert.Equal(t, int64(20), tags[0].FrecencyScore)

		tags, err = s.TagsByFrecency(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	t.Run("Settings", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		_, ok, err := s.GetSetting(ctx, "sync", "serverUrl")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetSetting(ctx, "sync", "serverUrl", `"http://a"`))
		require.NoError(t, s.SetSetting(ctx, "sync", "serverUrl", `"http://b"`))
		require.NoError(t, s.SetSetting(ctx, "other", "serverUrl", `"http://c"`))

		v, ok, err := s.GetSetting(ctx, "sync", "serverUrl")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `"http://b"`, v)
	})

	t.Run("PendingPredicate", func(t *testing.T) {
		s, clock := setup(t)
		ctx := context.Background()

		fresh, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("fresh")})
		require.NoError(t, err)
		pushed, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("pushed")})
		require.NoError(t, err)
		gone, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("gone")})
		require.NoError(t, err)
		_, err = s.DeleteItem(ctx, gone)
		require.NoError(t, err)

		pending, err := s.PendingItems(ctx, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{fresh, pushed}, ids(pending))

		syncTime := clock.Advance(100)
		require.NoError(t, s.MarkPushed(ctx, pushed, "srv-1", syncTime))

		n, err := s.CountPending(ctx, syncTime)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		clock.Advance(100)
		_, err = s.UpdateItem(ctx, pushed, models.ItemOptions{Content: ptr("edited")})
		require.NoError(t, err)

		// an edit after a sync is pending only once a sync time is recorded
		n, err = s.CountPending(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		pending, err = s.PendingItems(ctx, syncTime)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{fresh, pushed}, ids(pending))

		it, err := s.GetItem(ctx, pushed)
		require.NoError(t, err)
		assert.Equal(t, "srv-1", it.SyncID)
		assert.Equal(t, common.SyncSourceServer, it.SyncSource)
		assert.Equal(t, syncTime, it.SyncedAt)

		require.ErrorIs(t, s.MarkPushed(ctx, "item_missing", "x", syncTime), common.ErrorNotFound)
	})

	t.Run("SyncTargetLookup", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		local, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
		require.NoError(t, err)

		pulledID, err := s.InsertPulledItem(ctx, &models.Item{
			Type:       models.ItemTypeURL,
			Content:    ptr("https://x"),
			SyncID:     "srv-9",
			SyncSource: common.SyncSourceServer,
			SyncedAt:   start + 5,
			CreatedAt:  start - 1000,
			UpdatedAt:  start - 500,
		})
		require.NoError(t, err)
		assert.NotEqual(t, "srv-9", pulledID)

		byID, err := s.FindSyncTarget(ctx, local)
		require.NoError(t, err)
		assert.Equal(t, local, byID.ID)

		bySync, err := s.FindSyncTarget(ctx, "srv-9")
		require.NoError(t, err)
		assert.Equal(t, pulledID, bySync.ID)
		assert.Equal(t, start-1000, bySync.CreatedAt)
		assert.Equal(t, start-500, bySync.UpdatedAt)
		assert.Equal(t, "{}", bySync.Metadata)

		_, err = s.FindSyncTarget(ctx, "srv-unknown")
		require.ErrorIs(t, err, common.ErrorNotFound)

		_, err = s.DeleteItem(ctx, pulledID)
		require.NoError(t, err)
		_, err = s.FindSyncTarget(ctx, "srv-9")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("ApplyRemoteUpdate", func(t *testing.T) {
		s, _ := setup(t)
		ctx := context.Background()

		id, err := s.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("old"), Metadata: ptr(`{"a":1}`)})
		require.NoError(t, err)

		require.NoError(t, s.ApplyRemoteUpdate(ctx, id, ptr("new"), `{"b":2}`, start+50, start+60))

		it, err := s.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new", *it.Content)
		assert.JSONEq(t, `{"b":2}`, it.Metadata)
		assert.Equal(t, start+50, it.UpdatedAt)
		assert.Equal(t, start+60, it.SyncedAt)
	})
}

func ids(items []*models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func names(tags []*models.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}
