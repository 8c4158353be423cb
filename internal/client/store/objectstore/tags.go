package objectstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
)

func (s *Store) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, bool, error) {
	name, err := store.NormalizeTagName(name)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := s.allTags(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get tag[%s]: %w", name, err)
	}
	key := store.TagKey(name)
	for _, t := range tags {
		if store.TagKey(t.Name) == key {
			return t.model(), false, nil
		}
	}

	ts := s.now()
	r := tagRecord{
		ID:        store.GenerateID(store.PrefixTag),
		Name:      name,
		Slug:      store.TagSlug(name),
		Color:     models.DefaultTagColor,
		Metadata:  "{}",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.putJSON(ctx, colTags, r.ID, r); err != nil {
		return nil, false, fmt.Errorf("failed to create tag[%s]: %w", name, err)
	}
	return r.model(), true, nil
}

func (s *Store) TagItem(ctx context.Context, itemID, tagID string) (*models.ItemTag, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var l linkRecord
	ok, err := s.getJSON(ctx, colItemTags, linkKey(itemID, tagID), &l)
	if err != nil {
		return nil, false, fmt.Errorf("failed to tag item[%s]: %w", itemID, err)
	}
	if ok {
		return &models.ItemTag{ID: l.ID, ItemID: l.ItemID, TagID: l.TagID, CreatedAt: l.CreatedAt}, true, nil
	}

	ts := s.now()
	l = linkRecord{ID: store.GenerateID(store.PrefixItemTag), ItemID: itemID, TagID: tagID, CreatedAt: ts}
	if err := s.putJSON(ctx, colItemTags, linkKey(itemID, tagID), l); err != nil {
		return nil, false, fmt.Errorf("failed to tag item[%s]: %w", itemID, err)
	}

	var t tagRecord
	ok, err = s.getJSON(ctx, colTags, tagID, &t)
	if err != nil {
		return nil, false, fmt.Errorf("failed to bump tag[%s]: %w", tagID, err)
	}
	if ok {
		t.Frequency++
		t.LastUsedAt = ts
		t.FrecencyScore = store.Frecency(t.Frequency, ts, ts)
		t.UpdatedAt = ts
		if err := s.putJSON(ctx, colTags, tagID, t); err != nil {
			return nil, false, fmt.Errorf("failed to bump tag[%s]: %w", tagID, err)
		}
	}
	return &models.ItemTag{ID: l.ID, ItemID: l.ItemID, TagID: l.TagID, CreatedAt: l.CreatedAt}, false, nil
}

func (s *Store) UntagItem(ctx context.Context, itemID, tagID string) (bool, error) {
	ok, err := s.bucket.Delete(ctx, colItemTags, linkKey(itemID, tagID))
	if err != nil {
		return false, fmt.Errorf("failed to untag item[%s]: %w", itemID, err)
	}
	return ok, nil
}

func (s *Store) GetItemTags(ctx context.Context, itemID string) ([]*models.Tag, error) {
	links, err := s.allLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags of item[%s]: %w", itemID, err)
	}

	var out []*models.Tag
	for _, l := range links {
		if l.ItemID != itemID {
			continue
		}
		var t tagRecord
		ok, err := s.getJSON(ctx, colTags, l.TagID, &t)
		if err != nil {
			return nil, fmt.Errorf("failed to get tags of item[%s]: %w", itemID, err)
		}
		if ok {
			out = append(out, t.model())
		}
	}
	slices.SortFunc(out, func(a, b *models.Tag) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) GetItemsByTag(ctx context.Context, tagID string) ([]*models.Item, error) {
	links, err := s.allLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of tag[%s]: %w", tagID, err)
	}

	var out []*models.Item
	for _, l := range links {
		if l.TagID != tagID {
			continue
		}
		r, err := s.liveItem(ctx, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get items of tag[%s]: %w", tagID, err)
		}
		if r != nil {
			out = append(out, r.model())
		}
	}
	slices.SortFunc(out, func(a, b *models.Item) int {
		return cmp.Or(cmp.Compare(b.CreatedAt, a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) ClearItemTags(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearItemTags(ctx, itemID); err != nil {
		return fmt.Errorf("failed to clear tags of item[%s]: %w", itemID, err)
	}
	return nil
}

// clearItemTags expects s.mu to be held.
func (s *Store) clearItemTags(ctx context.Context, itemID string) error {
	links, err := s.allLinks(ctx)
	if err != nil {
		return err
	}
	for _, l := range links {
		if l.ItemID != itemID {
			continue
		}
		if _, err := s.bucket.Delete(ctx, colItemTags, linkKey(l.ItemID, l.TagID)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) TagsByFrecency(ctx context.Context, limit int) ([]*models.Tag, error) {
	all, err := s.allTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]*models.Tag, 0, len(all))
	for _, r := range all {
		out = append(out, r.model())
	}
	slices.SortFunc(out, func(a, b *models.Tag) int {
		return cmp.Or(cmp.Compare(b.FrecencyScore, a.FrecencyScore), cmp.Compare(a.Name, b.Name))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
