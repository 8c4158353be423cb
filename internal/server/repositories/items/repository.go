// Package items stores the items of one tenant profile. Every tenant
// database is SQLite, so there is a single dialect.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Item, error)
	ListSince(ctx context.Context, since int64) ([]*models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	FindBySyncID(ctx context.Context, syncID string) (*models.Item, error)
	Insert(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	SoftDelete(ctx context.Context, id string, ts int64) error
	ReplaceTags(ctx context.Context, itemID string, names []string, ts int64) error
	TagNames(ctx context.Context, itemID string) ([]string, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const itemColumns = `id, type, content, metadata, sync_id, created_at, updated_at, deleted_at`

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM items
		 WHERE deleted_at = 0
		 ORDER BY updated_at DESC, id ASC`)
}

func (r *SQLiteRepository) ListSince(ctx context.Context, since int64) ([]*models.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM items
		 WHERE deleted_at = 0 AND updated_at > ?
		 ORDER BY updated_at DESC, id ASC`, since)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Item, error) {
	return r.one(ctx, `SELECT `+itemColumns+` FROM items
		 WHERE id = ? AND deleted_at = 0`, id)
}

// FindBySyncID returns the live item whose id or sync_id equals syncID,
// preferring a direct id match.
func (r *SQLiteRepository) FindBySyncID(ctx context.Context, syncID string) (*models.Item, error) {
	return r.one(ctx, `SELECT `+itemColumns+` FROM items
		 WHERE deleted_at = 0 AND (id = ? OR sync_id = ?)
		 ORDER BY (id = ?) DESC, updated_at DESC
		 LIMIT 1`, syncID, syncID, syncID)
}

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Metadata == "" {
		item.Metadata = "{}"
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		item.ID, item.Type, item.Content, item.Metadata, item.SyncID, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update replaces the type, content and metadata of a live item and sets
// updated_at.
func (r *SQLiteRepository) Update(ctx context.Context, item *models.Item) error {
	if item.Metadata == "" {
		item.Metadata = "{}"
	}
	res, err := r.db.ExecContext(ctx, `UPDATE items
		 SET type = ?, content = ?, metadata = ?, updated_at = ?
		 WHERE id = ? AND deleted_at = 0`,
		item.Type, item.Content, item.Metadata, item.UpdatedAt, item.ID)
	return changed(res, err)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items
		 SET deleted_at = ?, updated_at = ?
		 WHERE id = ? AND deleted_at = 0`, ts, ts, id)
	return changed(res, err)
}

// ReplaceTags makes names the complete tag set of itemID. Blank names are
// dropped and names differing only in case collapse to one tag.
func (r *SQLiteRepository) ReplaceTags(ctx context.Context, itemID string, names []string, ts int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := r.db.ExecContext(ctx, `INSERT INTO tags (id, name, created_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`, uuid.NewString(), name, ts)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		_, err = r.db.ExecContext(ctx, `INSERT OR IGNORE INTO item_tags (item_id, tag_id)
			 SELECT ?, id FROM tags WHERE name = ?`, itemID, name)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) TagNames(ctx context.Context, itemID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.name FROM tags t
		 JOIN item_tags it ON it.tag_id = t.id
		 WHERE it.item_id = ?
		 ORDER BY t.name`, itemID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) one(ctx context.Context, query string, args ...any) (*models.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if item.Tags, err = r.TagNames(ctx, item.ID); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	// the tenant pool may hold a single connection, so the cursor is
	// released before the tag lookups
	_ = rows.Close()

	for _, item := range out {
		if item.Tags, err = r.TagNames(ctx, item.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.Item, error) {
	var (
		item    models.Item
		content sql.NullString
	)
	err := s.Scan(&item.ID, &item.Type, &content, &item.Metadata, &item.SyncID,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	if content.Valid {
		item.Content = &content.String
	}
	return &item, nil
}

func changed(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Changed(res)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
