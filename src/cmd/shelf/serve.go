package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the add-book HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// service logs go to stdout
			if err := a.load(cmd.OutOrStdout()); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.AdminToken == "" {
		a.log.Warn("ADMIN_TOKEN is not set; admin routes will reject every request")
	}
	c, err := cache.Open(a.cfg.Cache.Kind, a.cfg.Cache.Path)
	if err != nil {
		return err
	}
	if cl, ok := c.(io.Closer); ok {
		defer cl.Close()
	}
	ext, lib := a.extractor()
	srv := &web.Server{
		Token:     a.cfg.AdminToken,
		Extractor: ext,
		Search:    lib,
		Library:   a.library(),
		Publisher: newPublisher(a.cfg),
		Cache:     c,
		Log:       a.log,
	}
	httpSrv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", a.cfg.Listen, "data_dir", a.cfg.DataDir, "cache", a.cfg.Cache.Kind)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
