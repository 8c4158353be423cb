package models

// Item is an item as stored in a tenant database.
type Item struct {
	ID        string
	Type      string
	Content   *string
	Metadata  string
	SyncID    string
	CreatedAt int64
	UpdatedAt int64
	DeletedAt int64
	Tags      []string
}
