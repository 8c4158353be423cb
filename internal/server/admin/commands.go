package admin

import (
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/peeksync/internal/server/tenant"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/spf13/cobra"
)

func (a *admin) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user with a default profile and print its API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSecret(); err != nil {
				return err
			}
			u, key, err := a.auth.CreateUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "user id: %s\n", u.ID)
			fmt.Fprintf(w, "api key: %s\n", key)
			return nil
		},
	}

	key := &cobra.Command{
		Use:   "key <user-id>",
		Short: "Issue an additional API key for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSecret(); err != nil {
				return err
			}
			k, err := a.auth.IssueAPIKey(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("issue key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), k)
			return nil
		},
	}

	cmd.AddCommand(add, key)
	return cmd
}

func (a *admin) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the profiles of a user",
	}

	list := &cobra.Command{
		Use:     "list <user-id>",
		Aliases: []string{"ls"},
		Short:   "List profiles, default first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.auth.ListProfiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tNAME\tDEFAULT\tLAST USED")
			for _, p := range profiles {
				lastUsed := "-"
				if p.LastUsedAt > 0 {
					lastUsed = timex.ToISO(p.LastUsedAt)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Slug, p.Name, p.IsDefault, lastUsed)
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add <user-id> <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.auth.AddProfile(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("add profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", p.ID, p.Slug)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}

func (a *admin) migrateFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-folders",
		Short: "Rename slug-named profile folders to profile ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := tenant.MigrateFolders(cmd.Context(), a.cfg.DataDir, a.manager.Profiles(a.db), a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed: %d, created: %d, skipped: %d, unknown: %d\n",
				report.Renamed, report.Created, report.Skipped, report.Unknown)
			return nil
		},
	}
}
