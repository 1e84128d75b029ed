// Package rediscache caches category facet values in Redis in front of a
// catalog implementation.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/domain"
)

const (
	keyPrefix    = "browse:facets:"
	globalSuffix = "_all"
)

// FacetCache decorates a catalog.Catalog so that Facets is served from Redis
// when possible. Every other call goes straight to the wrapped catalog. A
// Redis outage degrades to uncached lookups; it is never reported as a
// catalog failure.
type FacetCache struct {
	catalog.Catalog
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ catalog.Catalog = (*FacetCache)(nil)

// New wraps next with a Redis facet cache whose entries expire after ttl.
func New(next catalog.Catalog, client *redis.Client, ttl time.Duration, logger *slog.Logger) *FacetCache {
	return &FacetCache{
		Catalog: next,
		client:  client,
		ttl:     ttl,
		logger:  logger,
	}
}

// Facets returns cached facet values for category, filling the cache from
// the wrapped catalog on a miss. Failed catalog lookups are not cached.
func (c *FacetCache) Facets(ctx context.Context, category string) (domain.FacetValues, error) {
	key := cacheKey(category)

	cached, err := c.get(ctx, key)
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "facet cache read failed",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
	}

	facets, err := c.Catalog.Facets(ctx, category)
	if err != nil {
		return domain.FacetValues{}, err
	}

	if err := c.set(ctx, key, facets); err != nil {
		c.logger.WarnContext(ctx, "facet cache write failed",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
	}
	return facets, nil
}

// Invalidate drops the cached facets of category.
func (c *FacetCache) Invalidate(ctx context.Context, category string) error {
	if err := c.client.Del(ctx, cacheKey(category)).Err(); err != nil {
		return fmt.Errorf("redis del facets: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable. Used as a non-critical readiness
// check.
func (c *FacetCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *FacetCache) get(ctx context.Context, key string) (domain.FacetValues, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.FacetValues{}, err
	}

	var facets domain.FacetValues
	if err := json.Unmarshal(data, &facets); err != nil {
		return domain.FacetValues{}, fmt.Errorf("unmarshal facets: %w", err)
	}
	return facets, nil
}

func (c *FacetCache) set(ctx context.Context, key string, facets domain.FacetValues) error {
	data, err := json.Marshal(facets)
	if err != nil {
		return fmt.Errorf("marshal facets: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set facets: %w", err)
	}
	return nil
}

func cacheKey(category string) string {
	if category == "" {
		return keyPrefix + globalSuffix
	}
	return keyPrefix + category
}
