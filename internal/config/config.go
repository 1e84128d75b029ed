package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront-browse/pkg/config"
	"github.com/utafrali/storefront-browse/pkg/database"
)

// Catalog backends.
const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

// Config holds all configuration for the browse service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"BROWSE_HTTP_PORT" envDefault:"8012"`

	// Catalog service
	CatalogBackend    string        `env:"CATALOG_BACKEND" envDefault:"http"`
	CatalogServiceURL string        `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8001"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"1"`

	// Browse sessions
	SuggestDebounce  time.Duration `env:"SUGGEST_DEBOUNCE" envDefault:"300ms"`
	SuggestMinChars  int           `env:"SUGGEST_MIN_CHARS" envDefault:"2"`
	SuggestLimit     int           `env:"SUGGEST_LIMIT" envDefault:"6"`
	PageSize         int           `env:"PAGE_SIZE" envDefault:"24"`
	PaginationWindow int           `env:"PAGINATION_WINDOW" envDefault:"10"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	// Facet cache (Redis)
	FacetCacheEnabled bool          `env:"FACET_CACHE_ENABLED" envDefault:"false"`
	FacetCacheTTL     time.Duration `env:"FACET_CACHE_TTL" envDefault:"5m"`
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`

	// HTTP surface
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CategoriesMaxAge   int           `env:"CATEGORIES_CACHE_MAX_AGE" envDefault:"300"`

	// Debug endpoints
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides reads configuration from environment variables, letting
// the given variables win. browsectl passes its flags this way.
func LoadWithOverrides(overrides map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, pkgconfig.WithOverrides(overrides)); err != nil {
		return nil, fmt.Errorf("load browse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Redis returns the connection settings for the facet cache.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// LogAttrs summarises the settings that shape browsing, for the startup log.
// The Redis password is never included.
func (c *Config) LogAttrs() []any {
	attrs := []any{
		slog.String("environment", c.Environment),
		slog.Int("http_port", c.HTTPPort),
		slog.String("catalog_backend", c.CatalogBackend),
	}
	if c.CatalogBackend == BackendHTTP {
		attrs = append(attrs, slog.String("catalog_url", c.CatalogServiceURL))
	}
	attrs = append(attrs,
		slog.Group("browse",
			slog.Int("page_size", c.PageSize),
			slog.Int("pagination_window", c.PaginationWindow),
			slog.Duration("session_idle_ttl", c.SessionIdleTTL),
		),
		slog.Group("suggest",
			slog.Duration("debounce", c.SuggestDebounce),
			slog.Int("min_chars", c.SuggestMinChars),
			slog.Int("limit", c.SuggestLimit),
		),
	)
	if c.FacetCacheEnabled {
		attrs = append(attrs, slog.Group("facet_cache",
			slog.String("redis", c.Redis().Addr()),
			slog.Duration("ttl", c.FacetCacheTTL),
		))
	}
	return attrs
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.CatalogBackend {
	case BackendHTTP:
		u, err := url.Parse(c.CatalogServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CATALOG_SERVICE_URL must be an absolute URL, got %q", c.CatalogServiceURL)
		}
	case BackendMemory:
		if c.Environment == "production" {
			return fmt.Errorf("CATALOG_BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendHTTP, BackendMemory, c.CatalogBackend)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.PaginationWindow < 1 {
		return fmt.Errorf("PAGINATION_WINDOW must be positive, got %d", c.PaginationWindow)
	}
	if c.SuggestMinChars < 1 || c.SuggestLimit < 1 {
		return fmt.Errorf("SUGGEST_MIN_CHARS and SUGGEST_LIMIT must be positive")
	}
	if c.SuggestDebounce < 0 {
		return fmt.Errorf("SUGGEST_DEBOUNCE must not be negative")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.Environment != "development" {
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain * in %s environment", c.Environment)
			}
		}
	}
	return nil
}
