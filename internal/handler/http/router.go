package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/config"
	"github.com/utafrali/storefront-browse/internal/session"
	"github.com/utafrali/storefront-browse/pkg/health"
	"github.com/utafrali/storefront-browse/pkg/middleware"
)

const serviceName = "browse"

// NewRouter creates a chi router with the browse session API, health and
// metrics endpoints. ctx bounds the rate limiter's janitor.
func NewRouter(
	ctx context.Context,
	cfg *config.Config,
	registry *session.Registry,
	categories catalog.CategoryTreeProvider,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack (applied in order).
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ExposedHeaders: []string{middleware.CorrelationHeader, "Location"},
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	sessionHandler := NewSessionHandler(registry, logger)
	categoryHandler := NewCategoryHandler(categories, logger)

	r.Route("/api/v1/browse", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(chimw.Compress(5))
		if cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
		}

		r.With(middleware.CacheControl(cfg.CategoriesMaxAge)).Get("/categories", categoryHandler.GetTree)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Post("/", sessionHandler.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)
				r.Post("/refresh", sessionHandler.Refresh)

				r.Put("/address", sessionHandler.Navigate)
				r.Patch("/filters", sessionHandler.SetFilter)
				r.Post("/filters/reset", sessionHandler.ResetFilters)
				r.Delete("/filters/{key}", sessionHandler.RemoveFilter)
				r.Put("/page", sessionHandler.SetPage)

				r.Put("/suggestions/query", sessionHandler.SetSuggestionQuery)
				r.Post("/suggestions/dismiss", sessionHandler.DismissSuggestions)
				r.Post("/suggestions/submit", sessionHandler.SubmitSearch)
				r.Post("/suggestions/select", sessionHandler.SelectSuggestion)
			})
		})
	})

	return r
}
