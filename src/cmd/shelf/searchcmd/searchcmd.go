package searchcmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bookshelf/src/cmd/shelf/outfmt"
	"bookshelf/src/internal/openlibrary"
)

// Searcher is satisfied by *openlibrary.Client.
type Searcher interface {
	Search(ctx context.Context, query string, offset int) (openlibrary.SearchPage, error)
}

// New returns the search command. newSearcher is called at run time so it
// sees the loaded configuration.
func New(newSearcher func() Searcher) *cobra.Command {
	var offset int
	var format string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Open Library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := newSearcher().Search(cmd.Context(), strings.Join(args, " "), offset)
			if err != nil {
				return err
			}
			if format != "table" {
				return outfmt.Print(cmd.OutOrStdout(), format, page)
			}
			return renderTable(cmd.OutOrStdout(), page, offset)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table|yaml|json")
	return cmd
}

func renderTable(w io.Writer, page openlibrary.SearchPage, offset int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tYEAR\tCOVER")
	for _, h := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Title, h.Author, h.Year, h.CoverImage.CoverID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d (offset %d)\n", len(page.Results), page.NumFound, offset)
	return err
}
