package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
)

// ItemView is an item together with its tag names.
type ItemView struct {
	Item *models.Item
	Tags []string
}

type ItemService interface {
	Add(ctx context.Context, itemType models.ItemType, opts models.ItemOptions, tags []string) (string, error)
	List(ctx context.Context, filter models.ItemFilter) ([]ItemView, error)
	Get(ctx context.Context, id string) (*ItemView, error)
	Delete(ctx context.Context, id string, hard bool) (bool, error)
	Tag(ctx context.Context, id string, names ...string) error
	Untag(ctx context.Context, id string, names ...string) error
	Tags(ctx context.Context, limit int) ([]*models.Tag, error)
}

type itemService struct {
	store store.Store
}

func NewItemService(st store.Store) ItemService {
	return &itemService{store: st}
}

func (s *itemService) Add(ctx context.Context, itemType models.ItemType, opts models.ItemOptions, tags []string) (string, error) {
	id, err := s.store.AddItem(ctx, itemType, opts)
	if err != nil {
		return "", err
	}
	if err := s.Tag(ctx, id, tags...); err != nil {
		return id, err
	}
	return id, nil
}

func (s *itemService) List(ctx context.Context, filter models.ItemFilter) ([]ItemView, error) {
	items, err := s.store.QueryItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		v, err := s.view(ctx, it)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *itemService) Get(ctx context.Context, id string) (*ItemView, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, it)
}

func (s *itemService) view(ctx context.Context, it *models.Item) (*ItemView, error) {
	tags, err := s.store.GetItemTags(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	v := &ItemView{Item: it, Tags: make([]string, 0, len(tags))}
	for _, t := range tags {
		v.Tags = append(v.Tags, t.Name)
	}
	return v, nil
}

func (s *itemService) Delete(ctx context.Context, id string, hard bool) (bool, error) {
	if hard {
		return s.store.HardDeleteItem(ctx, id)
	}
	return s.store.DeleteItem(ctx, id)
}

func (s *itemService) Tag(ctx context.Context, id string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := s.store.GetItem(ctx, id); err != nil {
		return err
	}
	for _, name := range names {
		tag, _, err := s.store.GetOrCreateTag(ctx, name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		if _, _, err := s.store.TagItem(ctx, id, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *itemService) Untag(ctx context.Context, id string, names ...string) error {
	tags, err := s.store.GetItemTags(ctx, id)
	if err != nil {
		return err
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		for _, t := range tags {
			if !strings.EqualFold(t.Name, name) {
				continue
			}
			if _, err := s.store.UntagItem(ctx, id, t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *itemService) Tags(ctx context.Context, limit int) ([]*models.Tag, error) {
	return s.store.TagsByFrecency(ctx, limit)
}
