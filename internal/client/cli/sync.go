package cli

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/services"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/spf13/cobra"
)

func (a *App) syncCmd() *cobra.Command {
	var watch time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull server changes, then push local ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.syncService(cmd.Context())
			if err != nil {
				return err
			}

			if watch <= 0 {
				res, err := svc.SyncAll(cmd.Context())
				if err != nil {
					return err
				}
				printSyncResult(cmd.OutOrStdout(), res)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := services.NewScheduler(svc, a.log)
			s.OnResult = func(res models.SyncResult, err error) {
				if err == nil {
					printSyncResult(cmd.OutOrStdout(), res)
				}
			}
			if err := s.Run(ctx, watch); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep syncing at this interval until interrupted")
	return cmd
}

func (a *App) pullCmd() *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Merge server items into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sincePtr *int64
			if since != "" {
				ms, err := timex.ParseISO(since)
				if err != nil {
					return fmt.Errorf("--since must be an RFC 3339 timestamp: %w", err)
				}
				sincePtr = &ms
			}

			svc, err := a.syncService(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Pull(cmd.Context(), sincePtr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled: %d, conflicts: %d\n", res.Pulled, res.Conflicts)
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only items updated after this RFC 3339 time (default: last sync)")
	return cmd
}

func (a *App) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload local items the server has not seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := services.LoadSyncConfig(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			svc, err := a.syncService(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Push(cmd.Context(), sc.LastSyncTime)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed: %d, failed: %d\n", res.Pushed, res.Failed)
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration and backlog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.syncService(cmd.Context())
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "configured: %t\n", st.Configured)
			fmt.Fprintf(w, "last sync:  %s\n", formatMillis(st.LastSyncTime))
			fmt.Fprintf(w, "pending:    %d\n", st.PendingCount)
			return nil
		},
	}
}

func printSyncResult(w io.Writer, res models.SyncResult) {
	fmt.Fprintf(w, "pulled: %d, pushed: %d, conflicts: %d, failed: %d, last sync: %s\n",
		res.Pulled, res.Pushed, res.Conflicts, res.Failed, formatMillis(res.LastSyncTime))
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "never"
	}
	return timex.ToISO(ms)
}
