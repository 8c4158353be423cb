package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
)

// pendingPredicate mirrors store.PushEligible; the single argument is the
// last sync time.
const pendingPredicate = `deletedAt = 0 AND (syncSource = '' OR (? > 0 AND syncedAt > 0 AND updatedAt > syncedAt))`

func (s *Store) FindSyncTarget(ctx context.Context, remoteID string) (*models.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND deletedAt = 0`, remoteID))
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find item[%s]: %w", remoteID, err)
	}

	it, err = scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE syncId = ? AND deletedAt = 0 ORDER BY updatedAt DESC LIMIT 1`, remoteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by syncId[%s]: %w", remoteID, err)
	}
	return it, nil
}

func (s *Store) InsertPulledItem(ctx context.Context, item *models.Item) (string, error) {
	metadata, err := store.NormalizeMetadata(item.Metadata)
	if err != nil {
		return "", err
	}

	id := store.GenerateID(store.PrefixItem)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, type, content, mimeType, metadata, syncId, syncSource, syncedAt,
		                   createdAt, updatedAt, deletedAt, starred, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, string(item.Type), nullString(item.Content), item.MimeType, metadata, item.SyncID, item.SyncSource,
		item.SyncedAt, item.CreatedAt, item.UpdatedAt, item.Starred, item.Archived)
	if err != nil {
		return "", fmt.Errorf("failed to insert pulled item[%s]: %w", item.SyncID, err)
	}
	return id, nil
}

func (s *Store) ApplyRemoteUpdate(ctx context.Context, id string, content *string, metadata string, updatedAt, syncedAt int64) error {
	metadata, err := store.NormalizeMetadata(metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE items SET content = ?, metadata = ?, updatedAt = ?, syncedAt = ? WHERE id = ?`,
		nullString(content), metadata, updatedAt, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to apply remote update to item[%s]: %w", id, err)
	}
	return nil
}

func (s *Store) PendingItems(ctx context.Context, lastSync int64) ([]*models.Item, error) {
	items, err := queryItems(ctx, s.db,
		`SELECT `+itemColumns+` FROM items WHERE `+pendingPredicate+` ORDER BY createdAt ASC, id ASC`, lastSync)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending items: %w", err)
	}
	return items, nil
}

func (s *Store) CountPending(ctx context.Context, lastSync int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+pendingPredicate, lastSync).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}
	return n, nil
}

func (s *Store) MarkPushed(ctx context.Context, id, syncID string, syncedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET syncId = ?, syncSource = ?, syncedAt = ? WHERE id = ?`,
		syncID, common.SyncSourceServer, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark item[%s] pushed: %w", id, err)
	}
	ok, err := dbx.Changed(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
