package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/peeksync/internal/client/client"
	"github.com/dmitrijs2005/peeksync/internal/client/config"
	"github.com/dmitrijs2005/peeksync/internal/client/services"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/client/store/objectstore"
	"github.com/dmitrijs2005/peeksync/internal/client/store/sqlitestore"
	"github.com/dmitrijs2005/peeksync/internal/logging"
)

// App is the state shared by the commands of one invocation.
type App struct {
	config *config.Config
	store  store.Store
	items  services.ItemService
	log    logging.Logger

	// newClient is a test seam.
	newClient func(cfg client.Config) (client.Client, error)
}

func newApp() *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config: cfg,
		newClient: func(cfg client.Config) (client.Client, error) {
			return client.NewHTTPClient(cfg)
		},
	}
}

func (a *App) open(ctx context.Context, stderr io.Writer) error {
	level := slog.LevelInfo
	if a.config.Debug {
		level = slog.LevelDebug
	}
	a.log = logging.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	st, err := openStore(ctx, a.config, a.log)
	if err != nil {
		return err
	}
	a.store = st
	a.items = services.NewItemService(st)
	return nil
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func openStore(ctx context.Context, cfg *config.Config, log logging.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendObject:
		if cfg.RedisAddr == "" {
			log.Warn(ctx, "object backend without redis keeps data in memory only")
			return objectstore.New(objectstore.NewMemoryBucket()), nil
		}
		b, err := objectstore.NewRedisBucket(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return objectstore.New(b), nil
	default:
		st, err := sqlitestore.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.DBPath, err)
		}
		return st, nil
	}
}

// syncService builds a SyncService against the configured server.
func (a *App) syncService(ctx context.Context) (services.SyncService, error) {
	sc, err := services.LoadSyncConfig(ctx, a.store)
	if err != nil {
		return nil, err
	}
	c, err := a.newClient(client.Config{
		BaseURL:    sc.ServerURL,
		APIKey:     sc.APIKey,
		Profile:    a.config.Profile,
		Slug:       a.config.Slug,
		ClientName: a.config.ClientName,
		Timeout:    a.config.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}
	return services.NewSyncService(a.store, c, a.log, nil), nil
}
