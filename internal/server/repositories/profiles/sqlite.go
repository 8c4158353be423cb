package profiles

import "github.com/dmitrijs2005/peeksync/internal/dbx"

const liteColumns = `id, user_id, slug, name, created_at, last_used_at, is_default`

var sqliteQueries = queries{
	create: `INSERT INTO profiles (` + liteColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	getByID: `SELECT ` + liteColumns + ` FROM profiles
		 WHERE user_id = ? AND id = ?`,
	getBySlug: `SELECT ` + liteColumns + ` FROM profiles
		 WHERE user_id = ? AND slug = ?`,
	listByUser: `SELECT ` + liteColumns + ` FROM profiles
		 WHERE user_id = ?
		 ORDER BY is_default DESC, created_at ASC`,
	touch: `UPDATE profiles SET last_used_at = ?
		 WHERE id = ?`,
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}
