package profiles

import "github.com/dmitrijs2005/peeksync/internal/dbx"

const pgColumns = `id, user_id, slug, name, created_at, last_used_at, is_default`

var postgresQueries = queries{
	create: `INSERT INTO profiles (` + pgColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	getByID: `SELECT ` + pgColumns + ` FROM profiles
		 WHERE user_id = $1 AND id = $2`,
	getBySlug: `SELECT ` + pgColumns + ` FROM profiles
		 WHERE user_id = $1 AND slug = $2`,
	listByUser: `SELECT ` + pgColumns + ` FROM profiles
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at ASC`,
	touch: `UPDATE profiles SET last_used_at = $1
		 WHERE id = $2`,
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
