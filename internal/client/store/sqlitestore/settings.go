package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) GetSetting(ctx context.Context, extensionID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM extension_settings WHERE extensionId = ? AND key = ?`, extensionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting[%s.%s]: %w", extensionID, key, err)
	}
	return value, true, nil
}

func (s *Store) SetSetting(ctx context.Context, extensionID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extension_settings (id, extensionId, key, value, updatedAt) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(extensionId, key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, extensionID+"-"+key, extensionID, key, value, s.now())
	if err != nil {
		return fmt.Errorf("failed to set setting[%s.%s]: %w", extensionID, key, err)
	}
	return nil
}
