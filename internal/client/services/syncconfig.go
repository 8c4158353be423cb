package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
)

const (
	DefaultServerURL = "https://peek-node.up.railway.app"
	ServerURLEnv     = "SYNC_SERVER_URL"
)

const (
	keyServerURL    = "serverUrl"
	keyAPIKey       = "apiKey"
	keyLastSyncTime = "lastSyncTime"
	keyAutoSync     = "autoSync"
)

// LoadSyncConfig reads the sync settings. An unset server URL falls back to
// $SYNC_SERVER_URL and then to DefaultServerURL; unreadable values count as
// unset.
func LoadSyncConfig(ctx context.Context, st store.SettingsStore) (models.SyncConfig, error) {
	var cfg models.SyncConfig

	if err := getJSON(ctx, st, keyServerURL, &cfg.ServerURL); err != nil {
		return cfg, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv(ServerURLEnv)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	if err := getJSON(ctx, st, keyAPIKey, &cfg.APIKey); err != nil {
		return cfg, err
	}
	if err := getJSON(ctx, st, keyAutoSync, &cfg.AutoSync); err != nil {
		return cfg, err
	}

	raw, ok, err := st.GetSetting(ctx, common.SyncExtensionID, keyLastSyncTime)
	if err != nil {
		return cfg, err
	}
	if ok {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.LastSyncTime = v
		}
	}
	return cfg, nil
}

// SaveSyncConfig persists cfg. Empty URL and key and a zero LastSyncTime are
// left as they are; AutoSync is always written.
func SaveSyncConfig(ctx context.Context, st store.SettingsStore, cfg models.SyncConfig) error {
	if cfg.ServerURL != "" {
		if err := setJSON(ctx, st, keyServerURL, cfg.ServerURL); err != nil {
			return err
		}
	}
	if cfg.APIKey != "" {
		if err := setJSON(ctx, st, keyAPIKey, cfg.APIKey); err != nil {
			return err
		}
	}
	if cfg.LastSyncTime > 0 {
		if err := saveLastSyncTime(ctx, st, cfg.LastSyncTime); err != nil {
			return err
		}
	}
	return setJSON(ctx, st, keyAutoSync, cfg.AutoSync)
}

func saveLastSyncTime(ctx context.Context, st store.SettingsStore, ts int64) error {
	return st.SetSetting(ctx, common.SyncExtensionID, keyLastSyncTime, strconv.FormatInt(ts, 10))
}

func getJSON(ctx context.Context, st store.SettingsStore, key string, dst any) error {
	raw, ok, err := st.GetSetting(ctx, common.SyncExtensionID, key)
	if err != nil || !ok {
		return err
	}
	_ = json.Unmarshal([]byte(raw), dst)
	return nil
}

func setJSON(ctx context.Context, st store.SettingsStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return st.SetSetting(ctx, common.SyncExtensionID, key, string(b))
}
