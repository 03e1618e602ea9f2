package extractcmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/src/cmd/shelf/outfmt"
	"bookshelf/src/internal/metadata"
)

// Extractor is satisfied by *metadata.Extractor.
type Extractor interface {
	Extract(ctx context.Context, raw string) metadata.Result
}

// NewExtractorFunc builds an extractor at run time; timeout 0 keeps the
// configured fetch timeout.
type NewExtractorFunc func(timeout time.Duration) Extractor

// New returns the extract command.
func New(newExtractor NewExtractorFunc) *cobra.Command {
	var format string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract title, authors and cover from a book page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := newExtractor(timeout).Extract(cmd.Context(), args[0])
			return outfmt.Print(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml|json")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "fetch timeout (overrides config)")
	return cmd
}
