package models

// DefaultTagColor is assigned to newly created tags.
const DefaultTagColor = "#999999"

// Tag is a named label. FrecencyScore is recomputed only when the tag is
// linked to an item, so it goes stale between uses.
type Tag struct {
	ID            string
	Name          string
	Slug          string
	Color         string
	ParentID      string
	Description   string
	Metadata      string
	CreatedAt     int64
	UpdatedAt     int64
	Frequency     int64
	LastUsedAt    int64
	FrecencyScore int64
}

// ItemTag links an item to a tag.
type ItemTag struct {
	ID        string
	ItemID    string
	TagID     string
	CreatedAt int64
}
