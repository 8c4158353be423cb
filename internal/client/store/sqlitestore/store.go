// Package sqlitestore is the relational implementation of store.Store.
package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

type Store struct {
	db  *sql.DB
	now func() int64
}

var _ store.Store = (*Store)(nil)

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: timex.NowMillis}
}

// Open initializes the database at dsn and returns a store over it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// WithClock replaces the wall clock, for tests.
func (s *Store) WithClock(now func() int64) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}
