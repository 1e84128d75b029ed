// Command server runs the browse service: per-shopper browse sessions over
// the catalog service, served as JSON under /api/v1/browse.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/storefront-browse/internal/app"
	"github.com/utafrali/storefront-browse/internal/config"
	"github.com/utafrali/storefront-browse/pkg/logger"
)

const serviceName = "browse-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("browse service exited", slog.String("service", serviceName), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run blocks until ctx is canceled or the HTTP server fails.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(serviceName, cfg.LogLevel)
	log.Info("starting browse service", cfg.LogAttrs()...)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("browse service stopped")
	return nil
}
