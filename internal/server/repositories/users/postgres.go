package users

import "github.com/dmitrijs2005/peeksync/internal/dbx"

var postgresQueries = queries{
	create: `INSERT INTO users (id, name, created_at)
		 VALUES ($1, $2, $3)`,
	getByID: `SELECT id, name, created_at FROM users
		 WHERE id = $1`,
	getByName: `SELECT id, name, created_at FROM users
		 WHERE name = $1`,
	getByAPIKeyHash: `SELECT u.id, u.name, u.created_at FROM users u
		 JOIN api_keys k ON k.user_id = u.id
		 WHERE k.key_hash = $1`,
	addAPIKey: `INSERT INTO api_keys (id, user_id, key_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
