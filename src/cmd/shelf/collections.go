package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/collections"
)

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Site data sets (books, blog, blogroll)",
	}
	cmd.AddCommand(newCollectionsBuildCmd(a))
	return cmd
}

func newCollectionsBuildCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write books.json, and blog.json/blogroll.json when configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Open(a.cfg.Cache.Kind, a.cfg.Cache.Path)
			if err != nil {
				return err
			}
			if cl, ok := c.(io.Closer); ok {
				defer cl.Close()
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			books, err := collections.Books(ctx, c, a.library())
			if err != nil {
				return err
			}
			if err := writeCollection(w, filepath.Join(out, "books.json"), books); err != nil {
				return err
			}

			g := a.guard()
			if a.cfg.WordPress.RootURL != "" {
				posts, err := collections.Blog(ctx, c, g, a.cfg.WordPress.RootURL)
				if err != nil {
					return err
				}
				if err := writeCollection(w, filepath.Join(out, "blog.json"), posts); err != nil {
					return err
				}
			}
			if a.cfg.Feedbin.Username != "" {
				subs, err := collections.Blogroll(ctx, c, g, collections.Credentials{
					Username: a.cfg.Feedbin.Username,
					Password: a.cfg.Feedbin.Password,
				})
				if err != nil {
					return err
				}
				if err := writeCollection(w, filepath.Join(out, "blogroll.json"), subs); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "_data", "output directory")
	return cmd
}

// writeCollection writes v as indented JSON and reports the path.
func writeCollection(w io.Writer, target string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, b, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "wrote %s\n", target)
	return err
}
