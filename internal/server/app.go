// Package server wires the peek sync server together: system database,
// tenant datastore pool, services and the HTTP API. It handles startup
// folder migration and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/server/config"
	"github.com/dmitrijs2005/peeksync/internal/server/httpserver"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peeksync/internal/server/services"
	"github.com/dmitrijs2005/peeksync/internal/server/tenant"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	zap     *logging.ZapLogger
	db      *sql.DB
	manager repomanager.RepositoryManager
	pool    *tenant.Pool
	redis   *redis.Client
	server  *httpserver.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	zl := logging.NewZapLogger(logging.NewProductionZap(c.Debug, c.LogFile))
	logger := zl.With("service", "peek-server")

	db, m, err := repomanager.Open(ctx, c.SystemDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		zap:     zl,
		db:      db,
		manager: m,
		pool:    tenant.NewPool(c.DataDir, logger),
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
	}

	handler, _, err := httpserver.NewRouter(httpserver.Deps{
		Auth:           services.NewAuthService(db, m, c.SecretKey),
		Profiles:       tenant.NewResolver(m.Profiles(db), logger),
		Pool:           app.pool,
		Items:          services.NewItemService(),
		Log:            logger,
		RequestTimeout: c.RequestTimeout,
		CORSOrigins:    c.CORSOrigins,
		RateLimit:      c.RateLimit,
		Redis:          app.redis,
	})
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("router init error: %w", err)
	}
	app.server = httpserver.NewServer(c.EndpointAddr, handler, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// migrateFolders renames legacy slug-named profile folders before any
// datastore is opened.
func (app *App) migrateFolders(ctx context.Context) error {
	report, err := tenant.MigrateFolders(ctx, app.config.DataDir, app.manager.Profiles(app.db), app.logger)
	if err != nil {
		return fmt.Errorf("profile folder migration: %w", err)
	}
	app.logger.Info(ctx, "profile folders checked",
		"renamed", report.Renamed,
		"created", report.Created,
		"skipped", report.Skipped,
		"unknown", report.Unknown,
	)
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) {
	if err := app.pool.CloseAll(); err != nil {
		app.logger.Error(ctx, "closing datastores", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing system db", "error", err)
	}
	if err := app.zap.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		fmt.Fprintf(os.Stderr, "flush log: %v\n", err)
	}
}

// Run serves until a signal arrives or the server fails, then releases
// every datastore.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	defer app.close(context.WithoutCancel(ctx))

	if err := app.migrateFolders(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return nil
}
