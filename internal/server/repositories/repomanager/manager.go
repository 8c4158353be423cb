// Package repomanager picks the system database dialect from the DSN and
// vends the matching repositories and schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/dbx"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}

// newProvider is a seam for testing goose.NewProvider.
var newProvider = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(dialect, db, fsys)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS) error {
	p, err := newProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate system db: %w", err)
	}
	return nil
}

// IsPostgresDSN reports whether dsn addresses a Postgres server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the system database named by dsn, migrates it and returns
// the matching manager.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)
	if IsPostgresDSN(dsn) {
		db, err = sql.Open("pgx", dsn)
		m = NewPostgresRepositoryManager()
	} else {
		db, err = openSQLite(dsn)
		m = NewSQLiteRepositoryManager()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}
