package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
)

const itemColumns = `id, type, content, mimeType, metadata, syncId, syncSource, syncedAt, createdAt, updatedAt, deletedAt, starred, archived`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		it      models.Item
		typ     string
		content sql.NullString
	)
	err := row.Scan(&it.ID, &typ, &content, &it.MimeType, &it.Metadata, &it.SyncID, &it.SyncSource,
		&it.SyncedAt, &it.CreatedAt, &it.UpdatedAt, &it.DeletedAt, &it.Starred, &it.Archived)
	if err != nil {
		return nil, err
	}
	it.Type = models.ItemType(typ)
	if content.Valid {
		it.Content = &content.String
	}
	return &it, nil
}

func queryItems(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

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

	id := store.GenerateID(store.PrefixItem)
	ts := s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, type, content, mimeType, metadata, syncId, syncSource, syncedAt,
		                   createdAt, updatedAt, deletedAt, starred, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 0, ?, ?)`,
		id, string(itemType), nullString(opts.Content), deref(opts.MimeType), metadata,
		deref(opts.SyncID), deref(opts.SyncSource), ts, ts, derefBool(opts.Starred), derefBool(opts.Archived))
	if err != nil {
		return "", fmt.Errorf("failed to add item: %w", err)
	}
	return id, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ? AND deletedAt = 0`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item[%s]: %w", id, err)
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, opts models.ItemOptions) (bool, error) {
	if opts.IsEmpty() {
		return false, nil
	}

	var changed bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT metadata FROM items WHERE id = ? AND deletedAt = 0`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		var sets []string
		var args []any
		add := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}

		if opts.Content != nil {
			add("content", *opts.Content)
		}
		if opts.MimeType != nil {
			add("mimeType", *opts.MimeType)
		}
		if opts.Metadata != nil {
			merged, err := store.MergeMetadata(current, *opts.Metadata)
			if err != nil {
				return err
			}
			add("metadata", merged)
		}
		if opts.SyncID != nil {
			add("syncId", *opts.SyncID)
		}
		if opts.SyncSource != nil {
			add("syncSource", *opts.SyncSource)
		}
		if opts.Starred != nil {
			add("starred", *opts.Starred)
		}
		if opts.Archived != nil {
			add("archived", *opts.Archived)
		}
		add("updatedAt", s.now())
		args = append(args, id)

		res, err := tx.ExecContext(ctx, `UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ? AND deletedAt = 0`, args...)
		if err != nil {
			return err
		}
		changed, err = dbx.Changed(res)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to update item[%s]: %w", id, err)
	}
	return changed, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) (bool, error) {
	ts := s.now()
	res, err := s.db.ExecContext(ctx, `UPDATE items SET deletedAt = ?, updatedAt = ? WHERE id = ? AND deletedAt = 0`, ts, ts, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item[%s]: %w", id, err)
	}
	return dbx.Changed(res)
}

func (s *Store) HardDeleteItem(ctx context.Context, id string) (bool, error) {
	var changed bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE itemId = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		changed, err = dbx.Changed(res)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to hard delete item[%s]: %w", id, err)
	}
	return changed, nil
}

func (s *Store) QueryItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	var conds []string
	var args []any

	if !filter.IncludeDeleted {
		conds = append(conds, "deletedAt = 0")
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Starred != nil {
		conds = append(conds, "starred = ?")
		args = append(args, *filter.Starred)
	}
	if filter.Archived != nil {
		conds = append(conds, "archived = ?")
		args = append(args, *filter.Archived)
	}

	q := `SELECT ` + itemColumns + ` FROM items`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if filter.SortBy == models.SortByUpdated {
		q += ` ORDER BY updatedAt DESC`
	} else {
		q += ` ORDER BY createdAt DESC`
	}
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	items, err := queryItems(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
