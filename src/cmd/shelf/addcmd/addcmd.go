package addcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/src/internal/metadata"
	"bookshelf/src/internal/sanitize"
	"bookshelf/src/internal/schema"
	"bookshelf/src/internal/store"
)

// CommitFunc publishes written paths; nil skips publishing.
type CommitFunc func(ctx context.Context, paths []string, message string) error

// Extractor is satisfied by *metadata.Extractor.
type Extractor interface {
	Extract(ctx context.Context, raw string) metadata.Result
}

// Deps are resolved at run time, after the configuration is loaded.
type Deps struct {
	Library   func() *store.Store
	Extractor func() Extractor
	Commit    func() CommitFunc
}

// New returns the add command.
func New(d Deps) *cobra.Command {
	var b schema.Book
	var authors, fromURL string
	var private bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the library (optionally pre-filled from --url)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b.Authors = schema.Authors(authors)
			if fromURL != "" {
				res := d.Extractor().Extract(cmd.Context(), fromURL)
				if res.Error != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: extraction: %s\n", res.Error)
				}
				Fill(&b, res)
			}
			b.Publishable = !private
			return write(cmd, d, b)
		},
	}
	cmd.Flags().StringVar(&b.Title, "title", "", "book title")
	cmd.Flags().StringVar(&authors, "authors", "", "author(s), comma separated")
	cmd.Flags().StringVar(&b.CoverImage, "cover", "", "cover image URL")
	cmd.Flags().StringVar(&b.Shelf, "shelf", schema.DefaultShelf, "shelf name")
	cmd.Flags().StringVar(&fromURL, "url", "", "extract missing fields from this book page")
	cmd.Flags().BoolVar(&private, "private", false, "keep the book off the public shelf")
	return cmd
}

func write(cmd *cobra.Command, d Deps, b schema.Book) error {
	sanitize.CleanBook(&b)
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required (use --title or --url)")
	}
	if strings.TrimSpace(string(b.Authors)) == "" {
		return fmt.Errorf("authors is required (use --authors or --url)")
	}
	if b.CoverImage == "" {
		b.CoverImage = schema.PlaceholderCover
	}

	lib := d.Library()
	dup := lib.CheckDuplicate(b.Title)
	if dup.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: duplicate check failed: %v\n", dup.Err)
	}
	for _, m := range dup.Matches {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: possible duplicate: %s by %s (%s)\n", m.Title, m.Authors, m.ID)
	}
	path, err := lib.WriteBook(&b)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path); err != nil {
		return err
	}
	if d.Commit == nil {
		return nil
	}
	if commit := d.Commit(); commit != nil {
		return commit(cmd.Context(), []string{path}, "Add book: "+b.Title)
	}
	return nil
}

// Fill copies extracted fields the user did not set by flag.
func Fill(b *schema.Book, res metadata.Result) {
	if strings.TrimSpace(b.Title) == "" {
		b.Title = res.Title
	}
	if strings.TrimSpace(string(b.Authors)) == "" {
		b.Authors = schema.Authors(res.Authors)
	}
	if strings.TrimSpace(b.CoverImage) == "" {
		b.CoverImage = res.CoverImage
	}
	if res.Source != "" && res.Source != metadata.SourceOpenLibrary {
		b.Source = res.Source
	}
}
