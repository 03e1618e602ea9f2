package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the author and shelf indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := a.library()
			books, err := lib.ReadAll()
			if err != nil {
				return err
			}
			var toCommit []string
			for _, build := range []func() (string, error){
				func() (string, error) { return lib.BuildAuthorIndex(books) },
				func() (string, error) { return lib.BuildShelfIndex(books) },
			} {
				path, err := build()
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path); err != nil {
					return err
				}
				toCommit = append(toCommit, path)
			}
			if pub := newPublisher(a.cfg); pub != nil {
				return pub.Publish(cmd.Context(), toCommit, "index: rebuild")
			}
			return nil
		},
	}
}
