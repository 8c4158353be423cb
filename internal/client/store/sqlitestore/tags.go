package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
)

const tagColumns = `id, name, slug, color, parentId, description, metadata, createdAt, updatedAt, frequency, lastUsedAt, frecencyScore`

func scanTag(row scanner) (*models.Tag, error) {
	var t models.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.ParentID, &t.Description, &t.Metadata,
		&t.CreatedAt, &t.UpdatedAt, &t.Frequency, &t.LastUsedAt, &t.FrecencyScore)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryTags(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]*models.Tag, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, bool, error) {
	name, err := store.NormalizeTagName(name)
	if err != nil {
		return nil, false, err
	}

	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE nameKey = ?`, store.TagKey(name)))
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get tag[%s]: %w", name, err)
	}

	ts := s.now()
	t = &models.Tag{
		ID:        store.GenerateID(store.PrefixTag),
		Name:      name,
		Slug:      store.TagSlug(name),
		Color:     models.DefaultTagColor,
		Metadata:  "{}",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, nameKey, slug, color, parentId, description, metadata, createdAt, updatedAt, frequency, lastUsedAt, frecencyScore)
		VALUES (?, ?, ?, ?, ?, '', '', ?, ?, ?, 0, 0, 0)`,
		t.ID, t.Name, store.TagKey(t.Name), t.Slug, t.Color, t.Metadata, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create tag[%s]: %w", name, err)
	}
	return t, true, nil
}

func (s *Store) TagItem(ctx context.Context, itemID, tagID string) (*models.ItemTag, bool, error) {
	var (
		link    *models.ItemTag
		existed bool
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var l models.ItemTag
		err := tx.QueryRowContext(ctx,
			`SELECT id, itemId, tagId, createdAt FROM item_tags WHERE itemId = ? AND tagId = ?`, itemID, tagID).
			Scan(&l.ID, &l.ItemID, &l.TagID, &l.CreatedAt)
		if err == nil {
			link, existed = &l, true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		ts := s.now()
		link = &models.ItemTag{ID: store.GenerateID(store.PrefixItemTag), ItemID: itemID, TagID: tagID, CreatedAt: ts}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_tags (id, itemId, tagId, createdAt) VALUES (?, ?, ?, ?)`,
			link.ID, link.ItemID, link.TagID, link.CreatedAt); err != nil {
			return err
		}

		var frequency int64
		err = tx.QueryRowContext(ctx, `SELECT frequency FROM tags WHERE id = ?`, tagID).Scan(&frequency)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		frequency++
		_, err = tx.ExecContext(ctx,
			`UPDATE tags SET frequency = ?, lastUsedAt = ?, frecencyScore = ?, updatedAt = ? WHERE id = ?`,
			frequency, ts, store.Frecency(frequency, ts, ts), ts, tagID)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to tag item[%s] with tag[%s]: %w", itemID, tagID, err)
	}
	return link, existed, nil
}

func (s *Store) UntagItem(ctx context.Context, itemID, tagID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM item_tags WHERE itemId = ? AND tagId = ?`, itemID, tagID)
	if err != nil {
		return false, fmt.Errorf("failed to untag item[%s]: %w", itemID, err)
	}
	return dbx.Changed(res)
}

func (s *Store) GetItemTags(ctx context.Context, itemID string) ([]*models.Tag, error) {
	tags, err := queryTags(ctx, s.db, `
		SELECT t.id, t.name, t.slug, t.color, t.parentId, t.description, t.metadata,
		       t.createdAt, t.updatedAt, t.frequency, t.lastUsedAt, t.frecencyScore
		FROM tags t
		JOIN item_tags it ON t.id = it.tagId
		WHERE it.itemId = ?
		ORDER BY t.name`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags of item[%s]: %w", itemID, err)
	}
	return tags, nil
}

func (s *Store) GetItemsByTag(ctx context.Context, tagID string) ([]*models.Item, error) {
	items, err := queryItems(ctx, s.db, `
		SELECT i.id, i.type, i.content, i.mimeType, i.metadata, i.syncId, i.syncSource, i.syncedAt,
		       i.createdAt, i.updatedAt, i.deletedAt, i.starred, i.archived
		FROM items i
		JOIN item_tags it ON i.id = it.itemId
		WHERE it.tagId = ? AND i.deletedAt = 0
		ORDER BY i.createdAt DESC`, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of tag[%s]: %w", tagID, err)
	}
	return items, nil
}

func (s *Store) ClearItemTags(ctx context.Context, itemID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM item_tags WHERE itemId = ?`, itemID); err != nil {
		return fmt.Errorf("failed to clear tags of item[%s]: %w", itemID, err)
	}
	return nil
}

func (s *Store) TagsByFrecency(ctx context.Context, limit int) ([]*models.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags ORDER BY frecencyScore DESC, name ASC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	tags, err := queryTags(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
