package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/catalog/httpcatalog"
	"github.com/utafrali/storefront-browse/internal/catalog/memory"
	"github.com/utafrali/storefront-browse/internal/catalog/rediscache"
	"github.com/utafrali/storefront-browse/internal/config"
	handler "github.com/utafrali/storefront-browse/internal/handler/http"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/session"
	"github.com/utafrali/storefront-browse/internal/suggest"
	"github.com/utafrali/storefront-browse/pkg/database"
	"github.com/utafrali/storefront-browse/pkg/health"
	"github.com/utafrali/storefront-browse/pkg/httpclient"
	"github.com/utafrali/storefront-browse/pkg/tracing"
)

// App wires together all dependencies and runs the browse service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	registry       *session.Registry
	redis          *redis.Client
	tracerShutdown tracing.ShutdownFunc

	// cancel stops the session janitor, the rate limiter and every session.
	cancel context.CancelFunc
	ctx    context.Context
}

// NewApp creates a new application instance: tracer, catalog client, optional
// Redis facet cache, session registry and HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Setup(initCtx, tracing.Config{
		Service:     "browse",
		Version:     "0.1.0",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTELEndpoint,
		SampleRate:  cfg.OTELSampleRate,
		Enabled:     cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	cat, breakers := NewCatalog(cfg, logger)
	healthHandler.RegisterCritical(catalog.ServiceName, catalogCheck(cfg, breakers[httpcatalog.EndpointGrid]))
	if breakers != nil {
		healthHandler.RegisterNonCritical("catalog_suggest", suggestCheck(breakers))
	}

	// The facet cache is optional; without Redis facets go straight to the
	// catalog.
	var redisClient *redis.Client
	if cfg.FacetCacheEnabled {
		redisClient, err = database.NewRedisClient(initCtx, cfg.Redis())
		if err != nil {
			logger.Warn("facet cache disabled, redis unavailable",
				slog.String("addr", cfg.Redis().Addr()),
				slog.String("error", err.Error()),
			)
		} else {
			cache := rediscache.New(cat, redisClient, cfg.FacetCacheTTL, logger)
			healthHandler.RegisterNonCritical("facet_cache", cache.Ping)
			cat = cache
			logger.Info("facet cache enabled",
				slog.String("addr", cfg.Redis().Addr()),
				slog.Duration("ttl", cfg.FacetCacheTTL),
			)
		}
	}

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
	}, i18n.Default(), logger)

	router := handler.NewRouter(ctx, cfg, registry, cat, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		registry:       registry,
		redis:          redisClient,
		tracerShutdown: tracerShutdown,
		cancel:         cancel,
		ctx:            ctx,
	}, nil
}

// NewCatalog builds the configured catalog backend. Breakers is nil for the
// in-memory backend.
func NewCatalog(cfg *config.Config, logger *slog.Logger) (catalog.Catalog, httpcatalog.Breakers) {
	if cfg.CatalogBackend == config.BackendMemory {
		logger.Warn("using in-memory demo catalog")
		return memory.NewDemo(), nil
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.CatalogTimeout
	clientCfg.MaxRetries = cfg.CatalogMaxRetries

	return httpcatalog.NewGuarded(
		cfg.CatalogServiceURL,
		httpclient.New(clientCfg),
		httpclient.DefaultBreakerConfig(catalog.ServiceName),
		logger,
	)
}

// suggestCheck degrades the service while search box lookups cannot reach
// either the suggestion endpoint or its product listing fallback.
func suggestCheck(breakers httpcatalog.Breakers) health.Checker {
	return func(context.Context) error {
		if breakers[httpcatalog.EndpointSuggest].State() == gobreaker.StateOpen &&
			breakers[httpcatalog.EndpointListing].State() == gobreaker.StateOpen {
			return errors.New("suggestion and product listing breakers open")
		}
		return nil
	}
}

// catalogCheck reports the catalog unavailable while its breaker is open or
// its host does not accept connections.
func catalogCheck(cfg *config.Config, breaker *httpclient.Breaker) health.Checker {
	return func(ctx context.Context) error {
		if breaker == nil {
			return nil
		}
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		u, err := url.Parse(cfg.CatalogServiceURL)
		if err != nil {
			return fmt.Errorf("parse catalog service URL: %w", err)
		}
		host := u.Host
		if u.Port() == "" {
			port := "80"
			if u.Scheme == "https" {
				port = "443"
			}
			host = net.JoinHostPort(u.Hostname(), port)
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return fmt.Errorf("catalog unreachable: %w", err)
		}
		_ = conn.Close()
		return nil
	}
}

// Run starts the HTTP server and the session janitor and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.registry.Run(a.ctx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("catalog_backend", a.cfg.CatalogBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application in order:
// 1. HTTP server (drain in-flight requests)
// 2. Sessions (drop debounce timers, let fetches resolve)
// 3. Redis
// 4. Tracer (flush spans from the drained requests)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.cancel()
	a.registry.Close()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// Handler exposes the router, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}
