package objectstore

import (
	"context"
	"fmt"
)

type settingRecord struct {
	ID          string `json:"id"`
	ExtensionID string `json:"extensionId"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	UpdatedAt   int64  `json:"updatedAt"`
}

func settingKey(extensionID, key string) string {
	return extensionID + "-" + key
}

func (s *Store) GetSetting(ctx context.Context, extensionID, key string) (string, bool, error) {
	var r settingRecord
	ok, err := s.getJSON(ctx, colSettings, settingKey(extensionID, key), &r)
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting[%s.%s]: %w", extensionID, key, err)
	}
	return r.Value, ok, nil
}

func (s *Store) SetSetting(ctx context.Context, extensionID, key, value string) error {
	id := settingKey(extensionID, key)
	r := settingRecord{ID: id, ExtensionID: extensionID, Key: key, Value: value, UpdatedAt: s.now()}
	if err := s.putJSON(ctx, colSettings, id, r); err != nil {
		return fmt.Errorf("failed to set setting[%s.%s]: %w", extensionID, key, err)
	}
	return nil
}
