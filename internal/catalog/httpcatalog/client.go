// Package httpcatalog talks to the catalog service over HTTP.
package httpcatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/querystate"
	"github.com/utafrali/storefront-browse/pkg/httpclient"
	"github.com/utafrali/storefront-browse/pkg/pagination"
)

// Catalog service endpoints.
const (
	pathSearch       = "/catalog/search"
	pathFacets       = "/catalog/facets"
	pathSuggest      = "/search/suggest"
	pathProducts     = "/products"
	pathCategoryTree = "/categories/tree"
)

// Endpoint groups catalog calls that share a circuit breaker. A failing
// suggestion endpoint must not stop the product listing it falls back to,
// nor the results grid.
type Endpoint string

const (
	EndpointGrid       Endpoint = "grid" // search and facets
	EndpointSuggest    Endpoint = "suggest"
	EndpointListing    Endpoint = "listing"
	EndpointCategories Endpoint = "categories"
)

// Endpoints lists every endpoint group.
func Endpoints() []Endpoint {
	return []Endpoint{EndpointGrid, EndpointSuggest, EndpointListing, EndpointCategories}
}

// Breakers holds the circuit breaker of each endpoint group.
type Breakers map[Endpoint]*httpclient.Breaker

// Client implements catalog.Catalog against the catalog service.
type Client struct {
	doers   map[Endpoint]httpclient.Doer
	baseURL string
}

var _ catalog.Catalog = (*Client)(nil)

// New creates a catalog client sending every call through doer.
func New(baseURL string, doer httpclient.Doer) *Client {
	doers := make(map[Endpoint]httpclient.Doer)
	for _, e := range Endpoints() {
		doers[e] = doer
	}
	return &Client{doers: doers, baseURL: baseURL}
}

// NewGuarded creates a catalog client with its own breaker per endpoint
// group, all sending through next. Breakers are named "catalog_<group>".
func NewGuarded(baseURL string, next httpclient.Doer, cfg httpclient.BreakerConfig, logger *slog.Logger) (*Client, Breakers) {
	doers := make(map[Endpoint]httpclient.Doer)
	breakers := make(Breakers)
	for _, e := range Endpoints() {
		bc := cfg
		bc.Name = catalog.ServiceName + "_" + string(e)
		b := httpclient.NewBreaker(next, bc, logger)
		doers[e] = b
		breakers[e] = b
	}
	return &Client{doers: doers, baseURL: baseURL}, breakers
}

type searchResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Pages    *int             `json:"pages"`
}

// Search calls GET /catalog/search with every non-empty filter, the page and
// the page size. A response without "pages" gets a page count derived from
// total.
func (c *Client) Search(ctx context.Context, state domain.FilterState, limit int) (domain.ResultPage, error) {
	params := querystate.Values(state)
	params.Set(string(domain.KeySortBy), string(sortOrDefault(state.SortBy)))
	params.Set(string(domain.KeyPage), strconv.Itoa(max(state.Page, 1)))
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.get(ctx, EndpointGrid, pathSearch, params, &resp); err != nil {
		return domain.ResultPage{}, err
	}

	total := max(resp.Total, 0)
	pages := pagination.PageCount(total, limit)
	if resp.Pages != nil {
		pages = max(*resp.Pages, 1)
	}
	items := resp.Products
	if items == nil {
		items = []domain.Product{}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return domain.ResultPage{Items: items, Total: total, Pages: pages}, nil
}

type facetsResponse struct {
	Brands     []string           `json:"brands"`
	PriceRange *domain.PriceRange `json:"price_range"`
}

// Facets calls GET /catalog/facets scoped to category.
func (c *Client) Facets(ctx context.Context, category string) (domain.FacetValues, error) {
	params := url.Values{}
	if category != "" {
		params.Set(string(domain.KeyCategory), category)
	}

	var resp facetsResponse
	if err := c.get(ctx, EndpointGrid, pathFacets, params, &resp); err != nil {
		return domain.FacetValues{}, err
	}

	facets := domain.DefaultFacets()
	facets.Category = category
	if resp.Brands != nil {
		facets.Brands = resp.Brands
	}
	if resp.PriceRange != nil {
		facets.PriceRange = *resp.PriceRange
	}
	return facets, nil
}

type suggestResponse struct {
	Items []domain.ProductSummary `json:"items"`
}

// Suggest calls GET /search/suggest.
func (c *Client) Suggest(ctx context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", strconv.Itoa(limit))

	var resp suggestResponse
	if err := c.get(ctx, EndpointSuggest, pathSuggest, params, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SearchProducts calls GET /products. The listing is a bare array; the
// {"data": [...]} and {"products": [...]} envelopes are accepted too.
func (c *Client) SearchProducts(ctx context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	params := url.Values{}
	params.Set("search", text)
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.get(ctx, EndpointListing, pathProducts, params, &raw); err != nil {
		return nil, err
	}
	return decodeListing(raw)
}

// CategoryTree calls GET /categories/tree.
func (c *Client) CategoryTree(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, EndpointCategories, pathCategoryTree, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, e Endpoint, path string, params url.Values, out any) error {
	return httpclient.GetJSON(ctx, c.doers[e], catalog.ServiceName, c.baseURL, path, params, out)
}

func decodeListing(raw json.RawMessage) ([]domain.ProductSummary, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.ProductSummary
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode product listing: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Data     []domain.ProductSummary `json:"data"`
		Products []domain.ProductSummary `json:"products"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode product listing: %w", err)
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return envelope.Products, nil
}

func sortOrDefault(s domain.SortKey) domain.SortKey {
	if s.IsValid() {
		return s
	}
	return domain.DefaultSort
}
