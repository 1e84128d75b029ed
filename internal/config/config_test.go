package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment:        "development",
		CatalogBackend:     BackendHTTP,
		CatalogServiceURL:  "http://localhost:8001",
		PageSize:           24,
		PaginationWindow:   10,
		SuggestMinChars:    2,
		SuggestLimit:       6,
		SuggestDebounce:    300 * time.Millisecond,
		SessionIdleTTL:     30 * time.Minute,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestLoadWithOverrides_Defaults(t *testing.T) {
	cfg, err := LoadWithOverrides(map[string]string{"ENVIRONMENT": "development"})
	require.NoError(t, err)

	assert.Equal(t, 8012, cfg.HTTPPort)
	assert.Equal(t, BackendHTTP, cfg.CatalogBackend)
	assert.Equal(t, 10*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SuggestDebounce)
	assert.Equal(t, 2, cfg.SuggestMinChars)
	assert.Equal(t, 6, cfg.SuggestLimit)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, 10, cfg.PaginationWindow)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.FacetCacheTTL)
	assert.Equal(t, []string{"127.0.0.1/32", "::1/128"}, cfg.PprofAllowedCIDRs)
}

func TestLoadWithOverrides_OverridesWin(t *testing.T) {
	t.Setenv("PAGE_SIZE", "12")

	cfg, err := LoadWithOverrides(map[string]string{
		"ENVIRONMENT":          "development",
		"CATALOG_BACKEND":      BackendMemory,
		"SUGGEST_DEBOUNCE":     "50ms",
		"CORS_ALLOWED_ORIGINS": "https://shop.example,https://m.shop.example",
		"LOG_LEVEL":            "",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, 50*time.Millisecond, cfg.SuggestDebounce)
	assert.Equal(t, []string{"https://shop.example", "https://m.shop.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadWithOverrides_InvalidValue(t *testing.T) {
	_, err := LoadWithOverrides(map[string]string{"PAGE_SIZE": "many"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load browse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory backend in development", func(c *Config) { c.CatalogBackend = BackendMemory }, ""},
		{"unknown backend", func(c *Config) { c.CatalogBackend = "grpc" }, "CATALOG_BACKEND"},
		{"memory backend in production", func(c *Config) {
			c.Environment = "production"
			c.CatalogBackend = BackendMemory
			c.CORSAllowedOrigins = []string{"https://shop.example"}
		}, "not allowed in production"},
		{"relative catalog url", func(c *Config) { c.CatalogServiceURL = "catalog:8001" }, "CATALOG_SERVICE_URL"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "PAGE_SIZE"},
		{"zero pagination window", func(c *Config) { c.PaginationWindow = 0 }, "PAGINATION_WINDOW"},
		{"zero suggestion limit", func(c *Config) { c.SuggestLimit = 0 }, "SUGGEST_LIMIT"},
		{"negative debounce", func(c *Config) { c.SuggestDebounce = -time.Second }, "SUGGEST_DEBOUNCE"},
		{"zero idle ttl", func(c *Config) { c.SessionIdleTTL = 0 }, "SESSION_IDLE_TTL"},
		{"zero rate limit", func(c *Config) { c.RateLimitRPS = 0 }, "RATE_LIMIT_RPS"},
		{"wildcard cors outside development", func(c *Config) { c.Environment = "staging" }, "CORS_ALLOWED_ORIGINS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Redis(t *testing.T) {
	cfg := validConfig()
	cfg.RedisHost = "cache"
	cfg.RedisPort = 6380
	cfg.RedisDB = 2

	rc := cfg.Redis()
	assert.Equal(t, "cache:6380", rc.Addr())
	assert.Equal(t, 2, rc.DB)
}

func TestConfig_LogAttrs(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPPort = 8012
	cfg.FacetCacheEnabled = true
	cfg.FacetCacheTTL = 5 * time.Minute
	cfg.RedisHost = "cache"
	cfg.RedisPort = 6379
	cfg.RedisPassword = "hunter2"

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("starting", cfg.LogAttrs()...)
	assert.NotContains(t, buf.String(), "hunter2")

	var entry struct {
		Backend    string `json:"catalog_backend"`
		CatalogURL string `json:"catalog_url"`
		Browse     struct {
			PageSize       int   `json:"page_size"`
			SessionIdleTTL int64 `json:"session_idle_ttl"`
		} `json:"browse"`
		Suggest struct {
			Debounce int64 `json:"debounce"`
		} `json:"suggest"`
		FacetCache *struct {
			Redis string `json:"redis"`
		} `json:"facet_cache"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, BackendHTTP, entry.Backend)
	assert.Equal(t, "http://localhost:8001", entry.CatalogURL)
	assert.Equal(t, 24, entry.Browse.PageSize)
	assert.Equal(t, int64(30*time.Minute), entry.Browse.SessionIdleTTL)
	assert.Equal(t, int64(300*time.Millisecond), entry.Suggest.Debounce)
	require.NotNil(t, entry.FacetCache)
	assert.Equal(t, "cache:6379", entry.FacetCache.Redis)
}

func TestConfig_LogAttrsMemoryBackendWithoutCache(t *testing.T) {
	cfg := validConfig()
	cfg.CatalogBackend = BackendMemory

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("starting", cfg.LogAttrs()...)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, BackendMemory, entry["catalog_backend"])
	assert.NotContains(t, entry, "catalog_url")
	assert.NotContains(t, entry, "facet_cache")
}
