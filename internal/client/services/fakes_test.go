package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/client/client"
	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/client/store/objectstore"
	"github.com/dmitrijs2005/peeksync/internal/client/store/storetest"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/stretchr/testify/require"
)

const t0 int64 = 1_700_000_000_000

// fakeServer is an in-memory stand-in for the sync server.
type fakeServer struct {
	client.Client

	mu      sync.Mutex
	clock   *storetest.Clock
	items   map[string]*protocol.ServerItem
	syncIDs map[string]string // server id -> sync_id
	seq     int
	calls   []string

	fetchErr   error
	pushErr    error
	pushErrFor map[string]error
}

func newFakeServer(clock *storetest.Clock) *fakeServer {
	return &fakeServer{
		clock:      clock,
		items:      map[string]*protocol.ServerItem{},
		syncIDs:    map[string]string{},
		pushErrFor: map[string]error{},
	}
}

func (f *fakeServer) put(si protocol.ServerItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := si
	f.items[si.ID] = &cp
}

func (f *fakeServer) FetchItems(_ context.Context, since *int64) ([]protocol.ServerItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	var out []protocol.ServerItem
	for _, si := range f.items {
		if since != nil && *since > 0 && timex.FromISO(si.UpdatedAt) <= *since {
			continue
		}
		out = append(out, *si)
	}
	return out, nil
}

func (f *fakeServer) PushItem(_ context.Context, req protocol.PushRequest) (*protocol.PushResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "push:"+req.SyncID)
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	if err := f.pushErrFor[req.SyncID]; err != nil {
		return nil, err
	}

	now := timex.ToISO(f.clock.Now())
	for id, si := range f.items {
		if id == req.SyncID || f.syncIDs[id] == req.SyncID {
			si.Content, si.Tags, si.Metadata, si.UpdatedAt = req.Content, req.Tags, req.Metadata, now
			return &protocol.PushResponse{ID: id}, nil
		}
	}

	f.seq++
	id := fmt.Sprintf("srv-%d", f.seq)
	f.items[id] = &protocol.ServerItem{
		ID: id, Type: req.Type, Content: req.Content, Tags: req.Tags, Metadata: req.Metadata,
		CreatedAt: now, UpdatedAt: now,
	}
	f.syncIDs[id] = req.SyncID
	return &protocol.PushResponse{ID: id, Created: true}, nil
}

func (f *fakeServer) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestStore(t *testing.T, clock *storetest.Clock) store.Store {
	t.Helper()
	s := objectstore.New(objectstore.NewMemoryBucket()).WithClock(clock.Now)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func configure(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, SaveSyncConfig(context.Background(), st, models.SyncConfig{
		ServerURL: "http://sync.test",
		APIKey:    "key",
	}))
}

func ptr[T any](v T) *T { return &v }

func tagNames(t *testing.T, st store.Store, itemID string) []string {
	t.Helper()
	tags, err := st.GetItemTags(context.Background(), itemID)
	require.NoError(t, err)
	out := make([]string, 0, len(tags))
	for _, tg := range tags {
		out = append(out, tg.Name)
	}
	return out
}
