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

func (s *Store) FindSyncTarget(ctx context.Context, remoteID string) (*models.Item, error) {
	r, err := s.liveItem(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item[%s]: %w", remoteID, err)
	}
	if r != nil {
		return r.model(), nil
	}

	all, err := s.allItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find item by syncId[%s]: %w", remoteID, err)
	}
	var best *itemRecord
	for i := range all {
		c := &all[i]
		if c.DeletedAt != 0 || c.SyncID != remoteID {
			continue
		}
		if best == nil || c.UpdatedAt > best.UpdatedAt {
			best = c
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best.model(), nil
}

func (s *Store) InsertPulledItem(ctx context.Context, item *models.Item) (string, error) {
	metadata, err := store.NormalizeMetadata(item.Metadata)
	if err != nil {
		return "", err
	}

	r := toItemRecord(item)
	r.ID = store.GenerateID(store.PrefixItem)
	r.Metadata = metadata
	r.DeletedAt = 0
	if err := s.putJSON(ctx, colItems, r.ID, r); err != nil {
		return "", fmt.Errorf("failed to insert pulled item[%s]: %w", item.SyncID, err)
	}
	return r.ID, nil
}

func (s *Store) ApplyRemoteUpdate(ctx context.Context, id string, content *string, metadata string, updatedAt, syncedAt int64) error {
	metadata, err := store.NormalizeMetadata(metadata)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var r itemRecord
	ok, err := s.getJSON(ctx, colItems, id, &r)
	if err != nil {
		return fmt.Errorf("failed to apply remote update to item[%s]: %w", id, err)
	}
	if !ok {
		return nil
	}
	r.Content, r.Metadata, r.UpdatedAt, r.SyncedAt = content, metadata, updatedAt, syncedAt
	if err := s.putJSON(ctx, colItems, id, r); err != nil {
		return fmt.Errorf("failed to apply remote update to item[%s]: %w", id, err)
	}
	return nil
}

func (s *Store) PendingItems(ctx context.Context, lastSync int64) ([]*models.Item, error) {
	all, err := s.allItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending items: %w", err)
	}
	var out []*models.Item
	for _, r := range all {
		if it := r.model(); store.PushEligible(it, lastSync) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b *models.Item) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) CountPending(ctx context.Context, lastSync int64) (int, error) {
	items, err := s.PendingItems(ctx, lastSync)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Store) MarkPushed(ctx context.Context, id, syncID string, syncedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r itemRecord
	ok, err := s.getJSON(ctx, colItems, id, &r)
	if err != nil {
		return fmt.Errorf("failed to mark item[%s] pushed: %w", id, err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	r.SyncID, r.SyncSource, r.SyncedAt = syncID, common.SyncSourceServer, syncedAt
	if err := s.putJSON(ctx, colItems, id, r); err != nil {
		return fmt.Errorf("failed to mark item[%s] pushed: %w", id, err)
	}
	return nil
}
