package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the peek command tree.
func NewRootCmd() *cobra.Command {
	a := newApp()
	return a.rootCmd()
}

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "peek",
		Short:         "Peek personal content store",
		Long:          "Manage the local peek store and sync it with a peek server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.Resolve(cmd.Flags()); err != nil {
				return err
			}
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	a.config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		a.syncCmd(),
		a.pullCmd(),
		a.pushCmd(),
		a.statusCmd(),
		a.configCmd(),
		a.itemsCmd(),
		a.tagsCmd(),
	)
	return root
}

// Execute runs the peek command tree with os.Args.
func Execute(ctx context.Context) error {
	a := newApp()
	defer func() { _ = a.close() }()
	return a.rootCmd().ExecuteContext(ctx)
}
