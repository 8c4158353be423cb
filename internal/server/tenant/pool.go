package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/peeksync/internal/filex"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/server/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DatastoreFile is the file name of a tenant database inside its profile
// folder.
const DatastoreFile = "datastore.sqlite"

// Pool lazily opens and caches one database per user profile.
type Pool struct {
	dataDir string
	log     logging.Logger

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func NewPool(dataDir string, log logging.Logger) *Pool {
	return &Pool{dataDir: dataDir, log: log, dbs: make(map[string]*sql.DB)}
}

// ProfileDir returns the folder of one profile.
func ProfileDir(dataDir, userID, profileID string) string {
	return filepath.Join(dataDir, userID, "profiles", profileID)
}

// Get returns the migrated database of the given profile, opening it on
// first use.
func (p *Pool) Get(ctx context.Context, userID, profileID string) (*sql.DB, error) {
	if !safeSegment(userID) || !safeSegment(profileID) {
		return nil, fmt.Errorf("invalid tenant %q/%q", userID, profileID)
	}
	key := userID + ":" + profileID

	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.dbs[key]; ok {
		return db, nil
	}

	dir := ProfileDir(p.dataDir, userID, profileID)
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}

	db, err := openDatastore(ctx, filepath.Join(dir, DatastoreFile))
	if err != nil {
		return nil, err
	}

	p.dbs[key] = db
	p.log.Info(ctx, "tenant datastore opened", "user_id", userID, "profile_id", profileID)
	return db, nil
}

// Len returns the number of open datastores.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dbs)
}

// CloseAll checkpoints and closes every open datastore.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, db := range p.dbs {
		if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			p.log.Warn(context.Background(), "wal checkpoint failed", "tenant", key, "error", err)
		}
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
		delete(p.dbs, key)
	}
	return errors.Join(errs...)
}

func openDatastore(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + filepath.ToSlash(path) +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	// one writer per datastore; WAL keeps readers out of its way
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping datastore: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Tenant())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate datastore: %w", err)
	}
	return db, nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
