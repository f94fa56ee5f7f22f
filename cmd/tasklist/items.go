package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/service"
)

func (cli *CLI) newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd.Context(), func(svc *service.ItemService) error {
				items, err := svc.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cli.out)
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				}
				return cli.printTable(items)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func (cli *CLI) printTable(items []model.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(cli.out, "No items in the list")
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tCREATED\tTEXT")
	for _, item := range items {
		done := " "
		if item.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\n",
			item.ID, done, item.CreatedAt.Local().Format(time.DateTime), item.Text)
	}
	return tw.Flush()
}

func (cli *CLI) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Add an item; multiple words are joined with spaces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd.Context(), func(svc *service.ItemService) error {
				item, err := svc.Create(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cli.out, item.ID)
				return err
			})
		},
	}
}

func (cli *CLI) newUpdateCmd() *cobra.Command {
	var (
		text      string
		completed bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an item's text and completion flag",
		Long: `Update mirrors the web form: the item is marked completed only when
--completed is given, and marked open otherwise. --text is optional; without
it the current text is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var newText *string
			if cmd.Flags().Changed("text") {
				newText = &text
			}
			return cli.withService(cmd.Context(), func(svc *service.ItemService) error {
				item, err := svc.Update(cmd.Context(), args[0], newText, completed)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cli.out, "updated %s\n", item.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "New item text")
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark the item completed")
	return cmd
}

func (cli *CLI) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete items; unknown ids are ignored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd.Context(), func(svc *service.ItemService) error {
				for _, id := range args {
					if err := svc.Delete(cmd.Context(), id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
