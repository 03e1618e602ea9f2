package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"bookshelf/src/internal/config"
	"bookshelf/src/internal/gitutil"
	"bookshelf/src/internal/metadata"
	"bookshelf/src/internal/openlibrary"
	"bookshelf/src/internal/store"
	"bookshelf/src/internal/urlguard"
	"bookshelf/src/internal/web"
)

// Swapped in tests.
var (
	loadConfig = config.Load
	// transport replaces the guarded dialer when non-nil.
	transport http.RoundTripper
	// newPublisher returns nil when publishing is disabled.
	newPublisher = func(cfg config.Config) web.Publisher {
		if !cfg.Publish.Git {
			return nil
		}
		return gitutil.New(cfg.PublishRepo(), cfg.Publish.Push)
	}
)

// app carries the resolved configuration into subcommands.
type app struct {
	cfgPath  string
	logLevel string
	cfg      config.Config
	log      *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Personal book library: extract, review and publish books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", getEnv("SHELF_CONFIG", "shelf.yaml"), "config file (YAML, optional)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newIndexCmd(a))
	root.AddCommand(newCollectionsCmd(a))
	return root
}

// getEnv returns the environment value for key or def if unset.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := loadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(a.log)
	return nil
}

func (a *app) guard() *urlguard.Guard {
	return urlguard.New(urlguard.Config{
		Timeout:      a.cfg.Fetch.Timeout,
		ResolveHosts: a.cfg.Fetch.ResolveHosts,
		Transport:    transport,
		Logger:       a.log,
	})
}

func (a *app) extractor() (*metadata.Extractor, *openlibrary.Client) {
	g := a.guard()
	lib := openlibrary.New(g)
	return metadata.New(g, lib, a.log), lib
}

func (a *app) library() *store.Store { return store.New(a.cfg.DataDir) }

func execute() error {
	return newRootCmd().Execute()
}

func main() {
	if err := execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
