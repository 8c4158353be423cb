package objectstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/client/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Memory(t *testing.T) {
	storetest.Run(t, func(t *testing.T, now func() int64) store.Store {
		return New(NewMemoryBucket()).WithClock(now)
	})
}

func TestStore_Redis(t *testing.T) {
	addr := os.Getenv("PEEK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PEEK_TEST_REDIS_ADDR not set")
	}

	var n int
	storetest.Run(t, func(t *testing.T, now func() int64) store.Store {
		n++
		ctx := context.Background()
		prefix := fmt.Sprintf("peektest:%d:%d", time.Now().UnixNano(), n)
		b, err := NewRedisBucket(ctx, addr, prefix)
		require.NoError(t, err)
		t.Cleanup(func() {
			cleanup, err := NewRedisBucket(ctx, addr, prefix)
			if err == nil {
				_ = cleanup.Drop(ctx, Collections...)
				_ = cleanup.Close()
			}
		})
		return New(b).WithClock(now)
	})
}

func TestStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket()
	s := New(b)

	require.NoError(t, b.Put(ctx, colItems, "item_bad", []byte("{not json")))

	_, err := s.GetItem(ctx, "item_bad")
	require.Error(t, err)

	_, err = s.QueryItems(ctx, models.ItemFilter{})
	require.Error(t, err)
}

func TestMemoryBucket_CopiesValues(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket()

	v := []byte("abc")
	require.NoError(t, b.Put(ctx, "c", "k", v))
	v[0] = 'x'

	got, ok, err := b.Get(ctx, "c", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	ok, err = b.Delete(ctx, "c", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.Delete(ctx, "c", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := b.All(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, all)
}
