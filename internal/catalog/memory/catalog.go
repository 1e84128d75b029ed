// Package memory is an in-process catalog used for local development and
// tests. It implements the same filtering, sorting and paging contract as the
// remote catalog service.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/pkg/pagination"
)

// Entry is one indexed product with the attributes the catalog filters on.
type Entry struct {
	Product    domain.Product
	Category   string
	Popularity int
	// Seq orders entries for the "new" sort; higher is newer.
	Seq int
}

// Category is one node of the category tree.
type Category struct {
	Slug     string     `json:"slug"`
	Name     string     `json:"name"`
	Children []Category `json:"children"`
}

// Catalog is an in-memory implementation of catalog.Catalog.
// Thread-safe via sync.RWMutex.
type Catalog struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	categories []Category
	seq        int
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates an empty in-memory catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Index adds or replaces entries. Entries without Seq are stamped in
// insertion order.
func (c *Catalog) Index(entries ...Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		if e.Seq == 0 {
			c.seq++
			e.Seq = c.seq
		}
		c.entries[e.Product.ID] = e
	}
}

// SetCategories replaces the category tree.
func (c *Catalog) SetCategories(tree []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = tree
}

// Search filters, sorts and pages the indexed products.
func (c *Catalog) Search(_ context.Context, state domain.FilterState, limit int) (domain.ResultPage, error) {
	matched := c.match(func(e Entry) bool { return matches(e, state) })
	sortEntries(matched, state.SortBy)

	total := len(matched)
	p := pagination.NewParams(state.Page, limit)
	start := min(p.Offset, total)
	end := min(start+p.PerPage, total)

	items := make([]domain.Product, 0, end-start)
	for _, e := range matched[start:end] {
		items = append(items, e.Product)
	}
	return domain.ResultPage{
		Items: items,
		Total: total,
		Pages: pagination.PageCount(total, p.PerPage),
	}, nil
}

// Facets collects the brands and price bounds of a category.
func (c *Catalog) Facets(_ context.Context, category string) (domain.FacetValues, error) {
	matched := c.match(func(e Entry) bool { return category == "" || e.Category == category })

	facets := domain.DefaultFacets()
	facets.Category = category
	if len(matched) == 0 {
		return facets, nil
	}

	brands := make(map[string]struct{})
	facets.PriceRange = domain.PriceRange{Min: matched[0].Product.Price, Max: matched[0].Product.Price}
	for _, e := range matched {
		if e.Product.Brand != "" {
			brands[e.Product.Brand] = struct{}{}
		}
		facets.PriceRange.Min = min(facets.PriceRange.Min, e.Product.Price)
		facets.PriceRange.Max = max(facets.PriceRange.Max, e.Product.Price)
	}
	for b := range brands {
		facets.Brands = append(facets.Brands, b)
	}
	sort.Strings(facets.Brands)
	return facets, nil
}

// Suggest returns the most popular products whose name contains text.
func (c *Catalog) Suggest(_ context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	matched := c.match(nameContains(text))
	sortEntries(matched, domain.SortPopular)
	return summaries(matched, limit), nil
}

// SearchProducts returns products whose name contains text in catalog order.
func (c *Catalog) SearchProducts(_ context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	matched := c.match(nameContains(text))
	sortEntries(matched, domain.SortNew)
	return summaries(matched, limit), nil
}

// CategoryTree returns the configured tree as JSON.
func (c *Catalog) CategoryTree(_ context.Context) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tree := c.categories
	if tree == nil {
		tree = []Category{}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshal category tree: %w", err)
	}
	return data, nil
}

func (c *Catalog) match(keep func(Entry) bool) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	// Map order is random; give every sort a deterministic base.
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func matches(e Entry, s domain.FilterState) bool {
	p := e.Product
	if s.Category != "" && e.Category != s.Category {
		return false
	}
	if s.Brand != "" && !strings.EqualFold(p.Brand, s.Brand) {
		return false
	}
	if s.MinPrice != nil && p.Price < *s.MinPrice {
		return false
	}
	if s.MaxPrice != nil && p.Price > *s.MaxPrice {
		return false
	}
	if s.InStock && !p.InStock {
		return false
	}
	if s.Search != "" && !nameContains(s.Search)(e) {
		return false
	}
	return true
}

func nameContains(text string) func(Entry) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	return func(e Entry) bool {
		return strings.Contains(strings.ToLower(e.Product.Name), needle)
	}
}

func sortEntries(entries []Entry, by domain.SortKey) {
	switch by {
	case domain.SortPriceAsc:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Product.Price < entries[j].Product.Price })
	case domain.SortPriceDesc:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Product.Price > entries[j].Product.Price })
	case domain.SortNew:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq > entries[j].Seq })
	case domain.SortRating:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Product.Rating > entries[j].Product.Rating })
	default:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Popularity > entries[j].Popularity })
	}
}

func summaries(entries []Entry, limit int) []domain.ProductSummary {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.ProductSummary, 0, len(entries))
	for _, e := range entries {
		s := domain.ProductSummary{ID: e.Product.ID, Name: e.Product.Name, Price: e.Product.Price}
		if len(e.Product.Images) > 0 {
			s.Image = e.Product.Images[0]
		}
		out = append(out, s)
	}
	return out
}
