package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bookshelf/src/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var shelf string
	var public bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library books, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.library().ReadAll()
			if err != nil {
				return err
			}
			books = store.FilterByShelf(books, shelf)
			if public {
				books = store.Publishable(books)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tAUTHORS\tSHELF\tID")
			for _, b := range books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Title, b.Authors, b.Shelf, b.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&shelf, "shelf", "", "only books on this shelf")
	cmd.Flags().BoolVar(&public, "public", false, "only publishable books")
	return cmd
}
