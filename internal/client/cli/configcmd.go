package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/services"
	"github.com/spf13/cobra"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change sync settings",
	}
	cmd.AddCommand(a.configShowCmd(), a.configSetURLCmd(), a.configSetKeyCmd(), a.configAutoSyncCmd())
	return cmd
}

func (a *App) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the sync settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := services.LoadSyncConfig(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "server url: %s\n", sc.ServerURL)
			fmt.Fprintf(w, "api key:    %s\n", maskKey(sc.APIKey))
			fmt.Fprintf(w, "last sync:  %s\n", formatMillis(sc.LastSyncTime))
			fmt.Fprintf(w, "auto sync:  %t\n", sc.AutoSync)
			return nil
		},
	}
}

func (a *App) configSetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <url>",
		Short: "Set the sync server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid server url %q", args[0])
			}
			sc, err := services.LoadSyncConfig(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			return services.SaveSyncConfig(cmd.Context(), a.store, models.SyncConfig{
				ServerURL: strings.TrimRight(args[0], "/"),
				AutoSync:  sc.AutoSync,
			})
		},
	}
}

func (a *App) configSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Set the API key (prompted without echo when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = strings.TrimSpace(args[0])
			} else {
				k, err := GetSecret(cmd.ErrOrStderr(), "API key: ")
				if err != nil {
					return err
				}
				key = k
			}
			if key == "" {
				return fmt.Errorf("api key is empty")
			}
			sc, err := services.LoadSyncConfig(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			return services.SaveSyncConfig(cmd.Context(), a.store, models.SyncConfig{APIKey: key, AutoSync: sc.AutoSync})
		},
	}
}

func (a *App) configAutoSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "auto-sync <on|off>",
		Short:     "Enable or disable automatic sync",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch strings.ToLower(args[0]) {
			case "on", "true", "yes":
				on = true
			case "off", "false", "no":
			default:
				return fmt.Errorf("want on or off, got %q", args[0])
			}
			return services.SaveSyncConfig(cmd.Context(), a.store, models.SyncConfig{AutoSync: on})
		},
	}
}

func maskKey(k string) string {
	switch {
	case k == "":
		return "(not set)"
	case len(k) <= 8:
		return strings.Repeat("*", len(k))
	default:
		return k[:4] + strings.Repeat("*", len(k)-4)
	}
}
