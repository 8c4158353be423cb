// Package objectstore implements store.Store over a key/value Bucket. Every
// record is a JSON document; relations are resolved by scanning collections.
package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

const (
	colItems    = "items"
	colTags     = "tags"
	colItemTags = "item_tags"
	colSettings = "settings"
)

// Collections lists every collection the store writes.
var Collections = []string{colItems, colTags, colItemTags, colSettings}

type Store struct {
	// mu serialises read-modify-write sequences; buckets are only atomic
	// per object
	mu     sync.Mutex
	bucket Bucket
	now    func() int64
}

var _ store.Store = (*Store)(nil)

func New(bucket Bucket) *Store {
	return &Store{bucket: bucket, now: timex.NowMillis}
}

// WithClock replaces the wall clock, for tests.
func (s *Store) WithClock(now func() int64) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

type itemRecord struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Content    *string `json:"content"`
	MimeType   string  `json:"mimeType"`
	Metadata   string  `json:"metadata"`
	SyncID     string  `json:"syncId"`
	SyncSource string  `json:"syncSource"`
	SyncedAt   int64   `json:"syncedAt"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt"`
	DeletedAt  int64   `json:"deletedAt"`
	Starred    bool    `json:"starred"`
	Archived   bool    `json:"archived"`
}

func toItemRecord(it *models.Item) itemRecord {
	return itemRecord{
		ID: it.ID, Type: string(it.Type), Content: it.Content, MimeType: it.MimeType, Metadata: it.Metadata,
		SyncID: it.SyncID, SyncSource: it.SyncSource, SyncedAt: it.SyncedAt,
		CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt, DeletedAt: it.DeletedAt,
		Starred: it.Starred, Archived: it.Archived,
	}
}

func (r itemRecord) model() *models.Item {
	return &models.Item{
		ID: r.ID, Type: models.ItemType(r.Type), Content: r.Content, MimeType: r.MimeType, Metadata: r.Metadata,
		SyncID: r.SyncID, SyncSource: r.SyncSource, SyncedAt: r.SyncedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, DeletedAt: r.DeletedAt,
		Starred: r.Starred, Archived: r.Archived,
	}
}

type tagRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Color         string `json:"color"`
	ParentID      string `json:"parentId"`
	Description   string `json:"description"`
	Metadata      string `json:"metadata"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
	Frequency     int64  `json:"frequency"`
	LastUsedAt    int64  `json:"lastUsedAt"`
	FrecencyScore int64  `json:"frecencyScore"`
}

func (r tagRecord) model() *models.Tag {
	t := models.Tag(r)
	return &t
}

type linkRecord struct {
	ID        string `json:"id"`
	ItemID    string `json:"itemId"`
	TagID     string `json:"tagId"`
	CreatedAt int64  `json:"createdAt"`
}

func linkKey(itemID, tagID string) string {
	return itemID + "|" + tagID
}

func (s *Store) getJSON(ctx context.Context, collection, key string, dst any) (bool, error) {
	raw, ok, err := s.bucket.Get(ctx, collection, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("corrupt %s/%s: %w", collection, key, err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, collection, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.bucket.Put(ctx, collection, key, raw)
}

func (s *Store) allItems(ctx context.Context) ([]itemRecord, error) {
	raw, err := s.bucket.All(ctx, colItems)
	if err != nil {
		return nil, err
	}
	out := make([]itemRecord, 0, len(raw))
	for k, v := range raw {
		var r itemRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("corrupt %s/%s: %w", colItems, k, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) allTags(ctx context.Context) ([]tagRecord, error) {
	raw, err := s.bucket.All(ctx, colTags)
	if err != nil {
		return nil, err
	}
	out := make([]tagRecord, 0, len(raw))
	for k, v := range raw {
		var r tagRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("corrupt %s/%s: %w", colTags, k, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) allLinks(ctx context.Context) ([]linkRecord, error) {
	raw, err := s.bucket.All(ctx, colItemTags)
	if err != nil {
		return nil, err
	}
	out := make([]linkRecord, 0, len(raw))
	for k, v := range raw {
		var r linkRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("corrupt %s/%s: %w", colItemTags, k, err)
		}
		out = append(out, r)
	}
	return out, nil
}
