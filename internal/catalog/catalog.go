// Package catalog defines the contract of the remote catalog service as the
// browse core consumes it.
package catalog

import (
	"context"
	"encoding/json"

	"github.com/utafrali/storefront-browse/internal/domain"
)

// Searcher serves the paginated product grid and its facet values.
type Searcher interface {
	// Search returns one page of products matching state. limit is the
	// page size.
	Search(ctx context.Context, state domain.FilterState, limit int) (domain.ResultPage, error)

	// Facets returns the selectable filter values for category; "" asks
	// for the global catalog.
	Facets(ctx context.Context, category string) (domain.FacetValues, error)
}

// Suggester serves the search box.
type Suggester interface {
	// Suggest queries the dedicated suggestion endpoint.
	Suggest(ctx context.Context, text string, limit int) ([]domain.ProductSummary, error)

	// SearchProducts queries the plain product listing; used as the
	// suggestion fallback.
	SearchProducts(ctx context.Context, text string, limit int) ([]domain.ProductSummary, error)
}

// CategoryTreeProvider serves the category tree for navigation menus. The
// tree is passed through without interpretation.
type CategoryTreeProvider interface {
	CategoryTree(ctx context.Context) (json.RawMessage, error)
}

// FacetInvalidator is implemented by catalogs that cache facet values.
type FacetInvalidator interface {
	Invalidate(ctx context.Context, category string) error
}

// Catalog is the full remote catalog contract.
type Catalog interface {
	Searcher
	Suggester
	CategoryTreeProvider
}

// Service name used in errors, spans and breaker metrics.
const ServiceName = "catalog"
