package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront-browse/internal/app"
	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/config"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/session"
	"github.com/utafrali/storefront-browse/internal/suggest"
	"github.com/utafrali/storefront-browse/pkg/logger"
)

// options are the persistent flags shared by every command.
type options struct {
	backend    string
	catalogURL string
	lang       string
	output     string
	logLevel   string
	timeout    time.Duration
	noColor    bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "browsectl",
		Short:         "Drive a storefront browse session from the terminal",
		Long:          "browsectl opens a browse session against the catalog service (or the built-in demo catalog) and prints what a catalog page would show.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("invalid output format %q, must be 'text' or 'json'", opts.output)
			}
			if opts.noColor {
				color.NoColor = true
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.backend, "backend", "", "catalog backend: http or memory (default from CATALOG_BACKEND)")
	f.StringVar(&opts.catalogURL, "catalog-url", "", "catalog service base URL (default from CATALOG_SERVICE_URL)")
	f.StringVar(&opts.lang, "lang", i18n.DefaultLanguage, "language for filter chip labels: uk, ru or en")
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "", "log level written to stderr (default from LOG_LEVEL)")
	f.DurationVar(&opts.timeout, "timeout", 15*time.Second, "how long to wait for the catalog")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored text output")

	cmd.AddCommand(
		newViewCommand(opts),
		newSuggestCommand(opts),
		newRemoveCommand(opts),
		newResetCommand(opts),
		newCategoriesCommand(opts),
	)
	return cmd
}

// env is one command's runtime: a catalog and a registry holding the
// session the command drives.
type env struct {
	catalog  catalog.Catalog
	registry *session.Registry
	cfg      *config.Config
	cancel   context.CancelFunc
}

func (e *env) close() {
	e.registry.Close()
	e.cancel()
}

// newEnv loads the service configuration with the command's flags layered
// on top and builds the catalog it names.
func newEnv(opts *options, stderr io.Writer) (*env, error) {
	cfg, err := config.LoadWithOverrides(map[string]string{
		"CATALOG_BACKEND":     opts.backend,
		"CATALOG_SERVICE_URL": opts.catalogURL,
		"LOG_LEVEL":           opts.logLevel,
	})
	if err != nil {
		return nil, err
	}

	log := logger.NewText("browsectl", cfg.LogLevel, stderr)
	cat, _ := app.NewCatalog(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	registry := session.NewRegistry(ctx, cat, session.Config{
		PageSize:         cfg.PageSize,
		PaginationWindow: cfg.PaginationWindow,
		IdleTTL:          cfg.SessionIdleTTL,
		Suggest: suggest.Config{
			Debounce: cfg.SuggestDebounce,
			MinChars: cfg.SuggestMinChars,
			Limit:    cfg.SuggestLimit,
		},
	}, i18n.Default(), log)

	return &env{catalog: cat, registry: registry, cfg: cfg, cancel: cancel}, nil
}

// settle waits for the session's fetches, bounded by the command timeout.
func settle(s *session.Session, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("catalog did not answer within %s", timeout)
	}
}
