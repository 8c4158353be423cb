package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/items"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// UpsertInput is a pushed item.
type UpsertInput struct {
	Type     string
	Content  *string
	Tags     []string
	Metadata json.RawMessage
	SyncID   string
}

// ItemService implements the item API over a tenant datastore. The
// datastore is passed per call because it depends on the request.
type ItemService struct {
	now func() int64
}

func NewItemService() *ItemService {
	return &ItemService{now: timex.NowMillis}
}

func (s *ItemService) List(ctx context.Context, db *sql.DB) ([]*models.Item, error) {
	return items.NewSQLiteRepository(db).List(ctx)
}

// Since returns the live items updated strictly after since.
func (s *ItemService) Since(ctx context.Context, db *sql.DB, since int64) ([]*models.Item, error) {
	return items.NewSQLiteRepository(db).ListSince(ctx, since)
}

func (s *ItemService) Get(ctx context.Context, db *sql.DB, id string) (*models.Item, error) {
	return items.NewSQLiteRepository(db).Get(ctx, id)
}

// Upsert updates the live item matching in.SyncID, or creates a new one.
// created reports which happened.
func (s *ItemService) Upsert(ctx context.Context, db *sql.DB, in UpsertInput) (item *models.Item, created bool, err error) {
	metadata, err := normalizeMetadata(in.Metadata)
	if err != nil {
		return nil, false, err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := items.NewSQLiteRepository(tx)
		now := s.now()

		if in.SyncID != "" {
			existing, err := repo.FindBySyncID(ctx, in.SyncID)
			switch {
			case err == nil:
				existing.Content = in.Content
				existing.Metadata = metadata
				existing.UpdatedAt = now
				if err := repo.Update(ctx, existing); err != nil {
					return err
				}
				if err := repo.ReplaceTags(ctx, existing.ID, in.Tags, now); err != nil {
					return err
				}
				item = existing
				item.Tags, err = repo.TagNames(ctx, item.ID)
				return err
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}

		item = &models.Item{
			Type:      in.Type,
			Content:   in.Content,
			Metadata:  metadata,
			SyncID:    in.SyncID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Insert(ctx, item); err != nil {
			return err
		}
		created = true
		if err := repo.ReplaceTags(ctx, item.ID, in.Tags, now); err != nil {
			return err
		}
		var err error
		item.Tags, err = repo.TagNames(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return item, created, nil
}

// Delete soft-deletes a live item.
func (s *ItemService) Delete(ctx context.Context, db *sql.DB, id string) error {
	return items.NewSQLiteRepository(db).SoftDelete(ctx, id, s.now())
}

// ReplaceTags sets the complete tag set of a live item and bumps its
// updated_at.
func (s *ItemService) ReplaceTags(ctx context.Context, db *sql.DB, id string, tags []string) (*models.Item, error) {
	var item *models.Item
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := items.NewSQLiteRepository(tx)
		it, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		it.UpdatedAt = now
		if err := repo.Update(ctx, it); err != nil {
			return err
		}
		if err := repo.ReplaceTags(ctx, id, tags, now); err != nil {
			return err
		}
		item, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// normalizeMetadata accepts a JSON object or nothing.
func normalizeMetadata(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "{}", nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("metadata must be a JSON object: %w", common.ErrorValidation)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
