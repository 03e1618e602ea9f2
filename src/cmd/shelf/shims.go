package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/src/cmd/shelf/addcmd"
	"bookshelf/src/cmd/shelf/extractcmd"
	"bookshelf/src/cmd/shelf/searchcmd"
	"bookshelf/src/internal/store"
)

// Shims binding the subcommand packages to the loaded app.

func newExtractCmd(a *app) *cobra.Command {
	return extractcmd.New(func(timeout time.Duration) extractcmd.Extractor {
		if timeout > 0 {
			a.cfg.Fetch.Timeout = timeout
		}
		ext, _ := a.extractor()
		return ext
	})
}

func newSearchCmd(a *app) *cobra.Command {
	return searchcmd.New(func() searchcmd.Searcher {
		_, lib := a.extractor()
		return lib
	})
}

func newAddCmd(a *app) *cobra.Command {
	return addcmd.New(addcmd.Deps{
		Library: func() *store.Store { return a.library() },
		Extractor: func() addcmd.Extractor {
			ext, _ := a.extractor()
			return ext
		},
		Commit: func() addcmd.CommitFunc { return a.commit() },
	})
}

// commit returns the configured publisher as a CommitFunc, or nil.
func (a *app) commit() addcmd.CommitFunc {
	pub := newPublisher(a.cfg)
	if pub == nil {
		return nil
	}
	return func(ctx context.Context, paths []string, message string) error {
		return pub.Publish(ctx, paths, message)
	}
}
