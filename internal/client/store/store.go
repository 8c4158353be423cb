package store

import (
	"context"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
)

// ItemStore holds content records.
type ItemStore interface {
	AddItem(ctx context.Context, itemType models.ItemType, opts models.ItemOptions) (string, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	UpdateItem(ctx context.Context, id string, opts models.ItemOptions) (bool, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	HardDeleteItem(ctx context.Context, id string) (bool, error)
	QueryItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error)
}

// SyncStore is the bookkeeping surface used by the sync engine.
type SyncStore interface {
	// FindSyncTarget returns the live item whose id, or failing that whose
	// syncId, equals remoteID.
	FindSyncTarget(ctx context.Context, remoteID string) (*models.Item, error)

	// InsertPulledItem stores item as given (timestamps and sync fields
	// included) under a freshly generated local id, which it returns.
	InsertPulledItem(ctx context.Context, item *models.Item) (string, error)

	// ApplyRemoteUpdate replaces content and metadata and sets both
	// timestamps.
	ApplyRemoteUpdate(ctx context.Context, id string, content *string, metadata string, updatedAt, syncedAt int64) error

	// PendingItems returns live items eligible for push.
	PendingItems(ctx context.Context, lastSync int64) ([]*models.Item, error)
	CountPending(ctx context.Context, lastSync int64) (int, error)

	// MarkPushed records a successful push.
	MarkPushed(ctx context.Context, id, syncID string, syncedAt int64) error
}

// TagStore holds tags and item-tag links.
type TagStore interface {
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, bool, error)
	TagItem(ctx context.Context, itemID, tagID string) (*models.ItemTag, bool, error)
	UntagItem(ctx context.Context, itemID, tagID string) (bool, error)
	GetItemTags(ctx context.Context, itemID string) ([]*models.Tag, error)
	GetItemsByTag(ctx context.Context, tagID string) ([]*models.Item, error)
	ClearItemTags(ctx context.Context, itemID string) error
	TagsByFrecency(ctx context.Context, limit int) ([]*models.Tag, error)
}

// SettingsStore is a namespaced key/value table.
type SettingsStore interface {
	GetSetting(ctx context.Context, extensionID, key string) (string, bool, error)
	SetSetting(ctx context.Context, extensionID, key, value string) error
}

// Store is a complete local replica.
type Store interface {
	ItemStore
	SyncStore
	TagStore
	SettingsStore
	Close() error
}
