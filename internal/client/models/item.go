package models

import (
	"fmt"
	"strings"
)

// ItemType is the closed set of content kinds.
type ItemType string

const (
	ItemTypeURL    ItemType = "url"
	ItemTypeText   ItemType = "text"
	ItemTypeTagset ItemType = "tagset"
	ItemTypeImage  ItemType = "image"
)

// ParseItemType validates s against the known item types.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemTypeURL, ItemTypeText, ItemTypeTagset, ItemTypeImage:
		return t, nil
	default:
		return "", fmt.Errorf("unknown item type %q", s)
	}
}

// Item is a content record. All timestamps are epoch milliseconds; a zero
// DeletedAt means the item is live.
type Item struct {
	ID         string
	Type       ItemType
	Content    *string
	MimeType   string
	Metadata   string // JSON object, "{}" when empty
	SyncID     string
	SyncSource string
	SyncedAt   int64
	CreatedAt  int64
	UpdatedAt  int64
	DeletedAt  int64
	Starred    bool
	Archived   bool
}

// IsDeleted reports whether the item carries a soft-delete marker.
func (i *Item) IsDeleted() bool {
	return i.DeletedAt != 0
}

// ItemOptions carries a partial set of item fields. Nil fields are left
// untouched by updates.
type ItemOptions struct {
	Content    *string
	MimeType   *string
	Metadata   *string
	SyncID     *string
	SyncSource *string
	Starred    *bool
	Archived   *bool
}

// IsEmpty reports whether no field is set.
func (o ItemOptions) IsEmpty() bool {
	return o.Content == nil && o.MimeType == nil && o.Metadata == nil &&
		o.SyncID == nil && o.SyncSource == nil && o.Starred == nil && o.Archived == nil
}

const (
	SortByCreated = "created"
	SortByUpdated = "updated"
)

// ItemFilter selects items for QueryItems.
type ItemFilter struct {
	Type           ItemType
	Starred        *bool
	Archived       *bool
	IncludeDeleted bool
	SortBy         string
	Limit          int
}
