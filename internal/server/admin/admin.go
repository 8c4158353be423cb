// Package admin implements peek-admin, the operator tool for the system
// database: creating users and API keys, managing profiles and running the
// profile folder migration.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/server/config"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peeksync/internal/server/services"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type admin struct {
	cfg        config.Config
	configPath string

	db      *sql.DB
	manager repomanager.RepositoryManager
	auth    *services.AuthService
	log     logging.Logger
}

func newAdmin() *admin {
	a := &admin{}
	a.cfg.LoadDefaults()
	return a
}

// resolve applies the server JSON file, then any flag given explicitly.
func (a *admin) resolve(flags *pflag.FlagSet) error {
	dsn, dataDir, secret := a.cfg.SystemDSN, a.cfg.DataDir, a.cfg.SecretKey
	if err := config.LoadFile(&a.cfg, a.configPath); err != nil {
		return err
	}
	if flags.Changed("dsn") {
		a.cfg.SystemDSN = dsn
	}
	if flags.Changed("data-dir") {
		a.cfg.DataDir = dataDir
	}
	if flags.Changed("secret") {
		a.cfg.SecretKey = secret
	}
	return nil
}

func (a *admin) open(ctx context.Context, stderr io.Writer) error {
	a.log = logging.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, nil)))

	db, m, err := repomanager.Open(ctx, a.cfg.SystemDSN)
	if err != nil {
		return fmt.Errorf("open system db: %w", err)
	}
	a.db, a.manager = db, m
	a.auth = services.NewAuthService(db, m, a.cfg.SecretKey)
	return nil
}

func (a *admin) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// requireSecret guards commands that hash API keys.
func (a *admin) requireSecret() error {
	if a.cfg.SecretKey == "" {
		return errors.New("secret key is required (--secret or secret_key in the config file)")
	}
	return nil
}

func (a *admin) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "peek-admin",
		Short:         "Administer a peek sync server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.resolve(cmd.Flags()); err != nil {
				return err
			}
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "server JSON config file")
	pf.StringVarP(&a.cfg.SystemDSN, "dsn", "d", a.cfg.SystemDSN, "system database DSN")
	pf.StringVarP(&a.cfg.DataDir, "data-dir", "f", a.cfg.DataDir, "tenant data directory")
	pf.StringVarP(&a.cfg.SecretKey, "secret", "s", a.cfg.SecretKey, "API key hashing secret")

	root.AddCommand(a.userCmd(), a.profileCmd(), a.migrateFoldersCmd())
	return root
}

// Execute runs peek-admin with os.Args.
func Execute(ctx context.Context) error {
	a := newAdmin()
	defer func() { _ = a.close() }()
	return a.rootCmd().ExecuteContext(ctx)
}
