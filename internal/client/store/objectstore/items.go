package objectstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
)

func (s *Store) AddItem(ctx context.Context, itemType models.ItemType, opts models.ItemOptions) (string, error) {
	if _, err := models.ParseItemType(string(itemType)); err != nil {
		return "", fmt.Errorf("%v: %w", err, common.ErrorValidation)
	}

	metadata := "{}"
	if opts.Metadata != nil {
		m, err := store.NormalizeMetadata(*opts.Metadata)
		if err != nil {
			return "", err
		}
		metadata = m
	}

	ts := s.now()
	r := itemRecord{
		ID:        store.GenerateID(store.PrefixItem),
		Type:      string(itemType),
		Content:   opts.Content,
		Metadata:  metadata,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if opts.MimeType != nil {
		r.MimeType = *opts.MimeType
	}
	if opts.SyncID != nil {
		r.SyncID = *opts.SyncID
	}
	if opts.SyncSource != nil {
		r.SyncSource = *opts.SyncSource
	}
	if opts.Starred != nil {
		r.Starred = *opts.Starred
	}
	if opts.Archived != nil {
		r.Archived = *opts.Archived
	}

	if err := s.putJSON(ctx, colItems, r.ID, r); err != nil {
		return "", fmt.Errorf("failed to add item: %w", err)
	}
	return r.ID, nil
}

func (s *Store) liveItem(ctx context.Context, id string) (*itemRecord, error) {
	var r itemRecord
	ok, err := s.getJSON(ctx, colItems, id, &r)
	if err != nil {
		return nil, err
	}
	if !ok || r.DeletedAt != 0 {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	r, err := s.liveItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item[%s]: %w", id, err)
	}
	if r == nil {
		return nil, common.ErrorNotFound
	}
	return r.model(), nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, opts models.ItemOptions) (bool, error) {
	if opts.IsEmpty() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.liveItem(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to update item[%s]: %w", id, err)
	}
	if r == nil {
		return false, nil
	}

	if opts.Content != nil {
		r.Content = opts.Content
	}
	if opts.MimeType != nil {
		r.MimeType = *opts.MimeType
	}
	if opts.Metadata != nil {
		merged, err := store.MergeMetadata(r.Metadata, *opts.Metadata)
		if err != nil {
			return false, err
		}
		r.Metadata = merged
	}
	if opts.SyncID != nil {
		r.SyncID = *opts.SyncID
	}
	if opts.SyncSource != nil {
		r.SyncSource = *opts.SyncSource
	}
	if opts.Starred != nil {
		r.Starred = *opts.Starred
	}
	if opts.Archived != nil {
		r.Archived = *opts.Archived
	}
	r.UpdatedAt = s.now()

	if err := s.putJSON(ctx, colItems, id, r); err != nil {
		return false, fmt.Errorf("failed to update item[%s]: %w", id, err)
	}
	return true, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.liveItem(ctx, id)
	if err != nil || r == nil {
		return false, err
	}
	ts := s.now()
	r.DeletedAt, r.UpdatedAt = ts, ts
	if err := s.putJSON(ctx, colItems, id, r); err != nil {
		return false, fmt.Errorf("failed to delete item[%s]: %w", id, err)
	}
	return true, nil
}

func (s *Store) HardDeleteItem(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearItemTags(ctx, id); err != nil {
		return false, fmt.Errorf("failed to hard delete item[%s]: %w", id, err)
	}
	ok, err := s.bucket.Delete(ctx, colItems, id)
	if err != nil {
		return false, fmt.Errorf("failed to hard delete item[%s]: %w", id, err)
	}
	return ok, nil
}

func (s *Store) QueryItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	all, err := s.allItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	var out []*models.Item
	for _, r := range all {
		if !filter.IncludeDeleted && r.DeletedAt != 0 {
			continue
		}
		if filter.Type != "" && r.Type != string(filter.Type) {
			continue
		}
		if filter.Starred != nil && r.Starred != *filter.Starred {
			continue
		}
		if filter.Archived != nil && r.Archived != *filter.Archived {
			continue
		}
		out = append(out, r.model())
	}

	key := func(it *models.Item) int64 { return it.CreatedAt }
	if filter.SortBy == models.SortByUpdated {
		key = func(it *models.Item) int64 { return it.UpdatedAt }
	}
	slices.SortFunc(out, func(a, b *models.Item) int {
		return cmp.Or(cmp.Compare(key(b), key(a)), cmp.Compare(a.ID, b.ID))
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
