// Package models holds the server-side records: accounts, their API keys,
// tenant profiles and the items stored in each tenant database.
package models

// User is an account on the sync server. Timestamps are epoch milliseconds.
type User struct {
	ID        string
	Name      string
	CreatedAt int64
}

// APIKey binds a hashed bearer token to a user. The raw token is never
// stored.
type APIKey struct {
	ID        string
	UserID    string
	KeyHash   string
	CreatedAt int64
}
