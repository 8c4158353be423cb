package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/client/client"
	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/client/store/storetest"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAll_NotConfigured(t *testing.T) {
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	_, err := svc.SyncAll(context.Background())
	require.ErrorIs(t, err, common.ErrNotConfigured)

	_, err = svc.Pull(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrNotConfigured)

	_, err = svc.Push(context.Background(), 0)
	require.ErrorIs(t, err, common.ErrNotConfigured)

	assert.Empty(t, srv.callLog())
}

func TestPushThenPushAgain(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(1000)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	id, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("hello")})
	require.NoError(t, err)

	pulled, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{}, pulled)

	clock.Advance(5)
	pushed, err := svc.Push(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.PushResult{Pushed: 1}, pushed)

	it, err := st.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", it.SyncID)
	assert.NotEmpty(t, it.SyncSource)
	assert.GreaterOrEqual(t, it.SyncedAt, it.UpdatedAt)

	pushed, err = svc.Push(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, pushed.Pushed)

	pushed, err = svc.Push(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, pushed.Pushed)

	assert.Equal(t, []string{"fetch", "push:" + id}, srv.callLog())
}

func TestPush_BodyShape(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	plain, err := st.AddItem(ctx, models.ItemTypeURL, models.ItemOptions{Content: ptr("https://a")})
	require.NoError(t, err)
	withMeta, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{
		Content:  ptr("b"),
		Metadata: ptr(`{"k":"v"}`),
		SyncID:   ptr("legacy-1"),
	})
	require.NoError(t, err)
	require.NoError(t, NewItemService(st).Tag(ctx, plain, "x", "y"))

	_, err = svc.Push(ctx, 0)
	require.NoError(t, err)

	a := srv.items["srv-1"]
	b := srv.items["srv-2"]
	if srv.syncIDs["srv-1"] != plain {
		a, b = b, a
	}
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Nil(t, a.Metadata)
	assert.ElementsMatch(t, []string{"x", "y"}, a.Tags)
	assert.JSONEq(t, `{"k":"v"}`, string(b.Metadata))
	assert.Equal(t, "legacy-1", srv.syncIDs[b.ID])
	assert.NotEqual(t, withMeta, srv.syncIDs[b.ID])
}

func TestPull_CreatesItemFromServer(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	created, updated := t0-10_000, t0-5_000
	srv.put(protocol.ServerItem{
		ID: "srv-2", Type: "url", Content: ptr("https://x"), Tags: []string{"news", "Read"},
		Metadata:  []byte(`{"title": "X"}`),
		CreatedAt: timex.ToISO(created), UpdatedAt: timex.ToISO(updated),
	})

	res, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{Pulled: 1}, res)

	it, err := st.FindSyncTarget(ctx, "srv-2")
	require.NoError(t, err)
	assert.NotEqual(t, "srv-2", it.ID)
	assert.Equal(t, models.ItemTypeURL, it.Type)
	assert.Equal(t, "https://x", *it.Content)
	assert.Equal(t, created, it.CreatedAt)
	assert.Equal(t, updated, it.UpdatedAt)
	assert.Equal(t, t0, it.SyncedAt)
	assert.Equal(t, common.SyncSourceServer, it.SyncSource)
	assert.JSONEq(t, `{"title":"X"}`, it.Metadata)
	assert.Equal(t, []string{"Read", "news"}, tagNames(t, st, it.ID))

	n, err := st.CountPending(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPull_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	srv.put(protocol.ServerItem{
		ID: "srv-3", Type: "text", Content: ptr("a"), Tags: []string{"t"},
		CreatedAt: timex.ToISO(t0 - 100), UpdatedAt: timex.ToISO(t0 - 50),
	})

	res, err := svc.Pull(ctx, ptr(int64(0)))
	require.NoError(t, err)
	require.Equal(t, 1, res.Pulled)

	before, err := st.FindSyncTarget(ctx, "srv-3")
	require.NoError(t, err)
	tagsBefore, err := st.TagsByFrecency(ctx, 0)
	require.NoError(t, err)

	clock.Advance(60_000)
	res, err = svc.Pull(ctx, ptr(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{}, res)

	after, err := st.FindSyncTarget(ctx, "srv-3")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	tagsAfter, err := st.TagsByFrecency(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, tagsBefore, tagsAfter)
}

func TestPull_LocalNewerIsConflict(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	id, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("local"), SyncID: ptr("srv-4")})
	require.NoError(t, err)
	require.NoError(t, NewItemService(st).Tag(ctx, id, "mine"))
	before, err := st.GetItem(ctx, id)
	require.NoError(t, err)

	srv.put(protocol.ServerItem{
		ID: "srv-4", Type: "text", Content: ptr("remote"), Tags: []string{"theirs"},
		CreatedAt: timex.ToISO(t0 - 100), UpdatedAt: timex.ToISO(t0 - 1),
	})

	res, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{Conflicts: 1}, res)

	after, err := st.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"mine"}, tagNames(t, st, id))
}

func TestPull_RemoteNewerReplacesContentAndTags(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	id, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("old"), Metadata: ptr(`{"keep":1}`)})
	require.NoError(t, err)
	require.NoError(t, NewItemService(st).Tag(ctx, id, "local-only"))

	// the server adopted the local id
	srv.put(protocol.ServerItem{
		ID: id, Type: "text", Content: ptr("new"), Tags: []string{"remote"},
		Metadata:  []byte(`{"fresh":true}`),
		CreatedAt: timex.ToISO(t0), UpdatedAt: timex.ToISO(t0 + 500),
	})

	clock.Advance(1000)
	res, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{Pulled: 1}, res)

	it, err := st.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", *it.Content)
	assert.JSONEq(t, `{"fresh":true}`, it.Metadata)
	assert.Equal(t, t0+500, it.UpdatedAt)
	assert.Equal(t, t0+1000, it.SyncedAt)
	assert.Equal(t, []string{"remote"}, tagNames(t, st, id))
}

func TestPull_BadItemIsSkipped(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	srv.put(protocol.ServerItem{ID: "bad", Type: "hologram", UpdatedAt: timex.ToISO(t0)})
	srv.put(protocol.ServerItem{ID: "good", Type: "text", Content: ptr("ok"), UpdatedAt: timex.ToISO(t0)})

	res, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{Pulled: 1}, res)
}

// tagFailStore stores items normally but cannot link tags.
type tagFailStore struct {
	store.Store
}

func (tagFailStore) TagItem(context.Context, string, string) (*models.ItemTag, bool, error) {
	return nil, false, errors.New("disk full")
}

func TestPull_TagFailureStillCountsItem(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(tagFailStore{st}, srv, logging.Discard(), clock.Now)

	srv.put(protocol.ServerItem{
		ID: "srv-7", Type: "text", Content: ptr("hi"), Tags: []string{"a"},
		CreatedAt: timex.ToISO(t0 - 10), UpdatedAt: timex.ToISO(t0 - 10),
	})

	res, err := svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{Pulled: 1}, res)

	it, err := st.FindSyncTarget(ctx, "srv-7")
	require.NoError(t, err)
	assert.Empty(t, tagNames(t, st, it.ID))

	res, err = svc.Pull(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PullResult{}, res)
}

func TestPull_TransportErrorAborts(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	srv.fetchErr = client.ErrUnavailable
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	_, err := svc.Pull(ctx, nil)
	require.ErrorIs(t, err, client.ErrUnavailable)
}

func TestSyncAll_PullsBeforePushAndRecordsStartTime(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)

	var ticks int
	now := func() int64 {
		ticks++
		return clock.Advance(10)
	}
	svc := NewSyncService(st, srv, logging.Discard(), now)

	id, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
	require.NoError(t, err)

	res, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, t0+10, res.LastSyncTime)

	assert.Equal(t, []string{"fetch", "push:" + id}, srv.callLog())

	cfg, err := LoadSyncConfig(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, t0+10, cfg.LastSyncTime)
	assert.Greater(t, ticks, 1)
}

func TestSyncAll_VersionMismatchLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	srv.put(protocol.ServerItem{ID: "srv-9", Type: "text", Content: ptr("x"), UpdatedAt: timex.ToISO(t0)})
	srv.fetchErr = &protocol.VersionMismatchError{Field: "datastore", Local: 1, Remote: "2"}
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	id, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("local")})
	require.NoError(t, err)

	_, err = svc.SyncAll(ctx)
	require.ErrorIs(t, err, common.ErrVersionMismatch)

	items, err := st.QueryItems(ctx, models.ItemFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Empty(t, items[0].SyncSource)

	cfg, err := LoadSyncConfig(ctx, st)
	require.NoError(t, err)
	assert.Zero(t, cfg.LastSyncTime)
	assert.Equal(t, []string{"fetch"}, srv.callLog())
}

func TestPush_CountsItemFailuresAndAbortsOnFatal(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	srv := newFakeServer(clock)
	svc := NewSyncService(st, srv, logging.Discard(), clock.Now)

	bad, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("bad")})
	require.NoError(t, err)
	clock.Advance(1)
	_, err = st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("good")})
	require.NoError(t, err)

	srv.pushErrFor[bad] = &client.StatusError{Code: 400, Message: "invalid"}
	res, err := svc.Push(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.PushResult{Pushed: 1, Failed: 1}, res)

	srv.pushErr = common.ErrSyncDisabled
	_, err = svc.Push(ctx, 0)
	require.ErrorIs(t, err, common.ErrSyncDisabled)
}

func TestRoundTrip_SecondDevice(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	srv := newFakeServer(clock)

	devA := newTestStore(t, clock)
	configure(t, devA)
	devB := newTestStore(t, clock)
	configure(t, devB)

	id, err := NewItemService(devA).Add(ctx, models.ItemTypeURL, models.ItemOptions{Content: ptr("https://peek")}, []string{"b", "a"})
	require.NoError(t, err)

	_, err = NewSyncService(devA, srv, logging.Discard(), clock.Now).SyncAll(ctx)
	require.NoError(t, err)

	clock.Advance(1000)
	svcB := NewSyncService(devB, srv, logging.Discard(), clock.Now)
	res, err := svcB.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pulled)
	assert.Zero(t, res.Pushed)

	items, err := devB.QueryItems(ctx, models.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemTypeURL, items[0].Type)
	assert.Equal(t, "https://peek", *items[0].Content)
	assert.ElementsMatch(t, []string{"a", "b"}, tagNames(t, devB, items[0].ID))

	src, err := devA.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, src.SyncID, items[0].SyncID)

	clock.Advance(1000)
	res, err = svcB.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{LastSyncTime: clock.Now()}, res)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	svc := NewSyncService(st, newFakeServer(clock), logging.Discard(), clock.Now)

	_, err := st.AddItem(ctx, models.ItemTypeText, models.ItemOptions{Content: ptr("a")})
	require.NoError(t, err)

	s, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatus{PendingCount: 1}, s)

	configure(t, st)
	s, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, s.Configured)
}

func TestPush_DeadlineAbortsTheRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := client.NewHTTPClient(client.Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	clock := storetest.NewClock(t0)
	st := newTestStore(t, clock)
	configure(t, st)
	for _, content := range []string{"a", "b", "c"} {
		_, err := st.AddItem(context.Background(), models.ItemTypeText, models.ItemOptions{Content: ptr(content)})
		require.NoError(t, err)
	}
	svc := NewSyncService(st, c, logging.Discard(), clock.Now)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res, err := svc.Push(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, res.Pushed)
	assert.Zero(t, res.Failed)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	_, err = svc.SyncAll(ctx2)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cfg, err := LoadSyncConfig(context.Background(), st)
	require.NoError(t, err)
	assert.Zero(t, cfg.LastSyncTime)
	n, err := st.PendingItems(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, n, 3)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, isFatal(client.ErrUnauthorized))
	assert.True(t, isFatal(&protocol.VersionMismatchError{}))
	assert.True(t, isFatal(context.DeadlineExceeded))
	assert.False(t, isPermanent(context.DeadlineExceeded))
	assert.True(t, isPermanent(common.ErrSyncDisabled))
	assert.False(t, isFatal(client.ErrUnavailable))
	assert.False(t, isFatal(&client.StatusError{Code: 500}))
	assert.False(t, isFatal(errors.New("boom")))
}

func TestMetadataString(t *testing.T) {
	assert.Equal(t, "{}", metadataString(nil))
	assert.Equal(t, "{}", metadataString([]byte("null")))
	assert.Equal(t, "{}", metadataString([]byte("[1]")))
	assert.Equal(t, `{"a":1}`, metadataString([]byte(` { "a" : 1 } `)))
}
