package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/services"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/spf13/cobra"
)

func (a *App) itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage local items",
	}
	cmd.AddCommand(a.itemsAddCmd(), a.itemsListCmd(), a.itemsRmCmd(), a.itemsTagCmd(), a.itemsUntagCmd())
	return cmd
}

func (a *App) itemsAddCmd() *cobra.Command {
	var (
		tags     []string
		metadata string
		mimeType string
		starred  bool
	)
	cmd := &cobra.Command{
		Use:   "add <url|text|tagset|image> [content]",
		Short: "Add an item",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemType, err := models.ParseItemType(args[0])
			if err != nil {
				return err
			}
			var opts models.ItemOptions
			if len(args) == 2 {
				opts.Content = &args[1]
			}
			if metadata != "" {
				opts.Metadata = &metadata
			}
			if mimeType != "" {
				opts.MimeType = &mimeType
			}
			if starred {
				opts.Starred = &starred
			}

			id, err := a.items.Add(cmd.Context(), itemType, opts, tags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag to attach (repeatable)")
	cmd.Flags().StringVar(&metadata, "meta", "", "metadata as a JSON object")
	cmd.Flags().StringVar(&mimeType, "mime", "", "mime type")
	cmd.Flags().BoolVar(&starred, "star", false, "star the item")
	return cmd
}

func (a *App) itemsListCmd() *cobra.Command {
	var (
		itemType string
		sortBy   string
		limit    int
		starred  bool
		archived bool
		deleted  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List items, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.ItemFilter{IncludeDeleted: deleted, SortBy: sortBy, Limit: limit}
			if itemType != "" {
				t, err := models.ParseItemType(itemType)
				if err != nil {
					return err
				}
				filter.Type = t
			}
			if cmd.Flags().Changed("starred") {
				filter.Starred = &starred
			}
			if cmd.Flags().Changed("archived") {
				filter.Archived = &archived
			}

			views, err := a.items.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), views)
			return nil
		},
	}
	cmd.Flags().StringVar(&itemType, "type", "", "only items of this type")
	cmd.Flags().StringVar(&sortBy, "sort", models.SortByCreated, "sort by created or updated")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of items")
	cmd.Flags().BoolVar(&starred, "starred", false, "filter on starred")
	cmd.Flags().BoolVar(&archived, "archived", false, "filter on archived")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "include soft-deleted items")
	return cmd
}

func (a *App) itemsRmCmd() *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.items.Delete(cmd.Context(), args[0], hard)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("item %s: %w", args[0], common.ErrorNotFound)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "remove the item and its tag links permanently")
	return cmd
}

func (a *App) itemsTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Attach tags to an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.items.Tag(cmd.Context(), args[0], args[1:]...)
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("item %s: %w", args[0], err)
			}
			return err
		},
	}
}

func (a *App) itemsUntagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <id> <tag>...",
		Short: "Detach tags from an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.items.Untag(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func (a *App) tagsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.items.Tags(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tUSES\tSCORE")
			for _, t := range tags {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", t.Name, t.Frequency, t.FrecencyScore)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of tags")
	return cmd
}

func printItems(w io.Writer, views []services.ItemView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tCONTENT\tTAGS")
	for _, v := range views {
		content := ""
		if v.Item.Content != nil {
			content = truncate(*v.Item.Content, 60)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.Item.ID, v.Item.Type, timex.ToISO(v.Item.CreatedAt), content, strings.Join(v.Tags, ","))
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
