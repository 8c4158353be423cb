package models

// DefaultProfileSlug names the profile used when a request does not pick
// one.
const DefaultProfileSlug = "default"

// Profile is one isolated datastore of a user.
type Profile struct {
	ID         string
	UserID     string
	Slug       string
	Name       string
	CreatedAt  int64
	LastUsedAt int64
	IsDefault  bool
}
