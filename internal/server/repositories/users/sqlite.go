package users

import "github.com/dmitrijs2005/peeksync/internal/dbx"

var sqliteQueries = queries{
	create: `INSERT INTO users (id, name, created_at)
		 VALUES (?, ?, ?)`,
	getByID: `SELECT id, name, created_at FROM users
		 WHERE id = ?`,
	getByName: `SELECT id, name, created_at FROM users
		 WHERE name = ?`,
	getByAPIKeyHash: `SELECT u.id, u.name, u.created_at FROM users u
		 JOIN api_keys k ON k.user_id = u.id
		 WHERE k.key_hash = ?`,
	addAPIKey: `INSERT INTO api_keys (id, user_id, key_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}
