// Package migrations embeds the goose migrations of the server: the system
// schema in a Postgres and a SQLite flavour, and the per-profile tenant
// schema.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed system/postgres/*.sql system/sqlite/*.sql tenant/*.sql
var files embed.FS

// SystemPostgres returns the system schema for Postgres.
func SystemPostgres() fs.FS { return sub("system/postgres") }

// SystemSQLite returns the system schema for SQLite.
func SystemSQLite() fs.FS { return sub("system/sqlite") }

// Tenant returns the schema of a profile datastore.
func Tenant() fs.FS { return sub("tenant") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
