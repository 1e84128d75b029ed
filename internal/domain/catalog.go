package domain

import (
	"encoding/json"
	"fmt"
)

// Product is one card of the catalog grid. Fields the grid does not use are
// dropped on decode.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Price    float64  `json:"price"`
	OldPrice *float64 `json:"old_price,omitempty"`
	Images   []string `json:"images,omitempty"`
	InStock  bool     `json:"in_stock"`
	Rating   float64  `json:"rating,omitempty"`
}

// UnmarshalJSON accepts catalog documents that name the product either
// "title" or "name".
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Title    string          `json:"title"`
		Name     string          `json:"name"`
		Slug     string          `json:"slug"`
		Brand    string          `json:"brand"`
		Price    float64         `json:"price"`
		OldPrice *float64        `json:"old_price"`
		Images   []string        `json:"images"`
		InStock  *bool           `json:"in_stock"`
		Rating   float64         `json:"rating"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*p = Product{
		ID:       id,
		Name:     firstNonEmpty(raw.Title, raw.Name),
		Slug:     raw.Slug,
		Brand:    raw.Brand,
		Price:    raw.Price,
		OldPrice: raw.OldPrice,
		Images:   raw.Images,
		InStock:  raw.InStock == nil || *raw.InStock,
		Rating:   raw.Rating,
	}
	return nil
}

// ProductSummary is one entry of the suggestion list.
type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image string  `json:"image,omitempty"`
	Price float64 `json:"price"`
}

// UnmarshalJSON reads the display name from "title", falling back to
// "name", and keeps only the first image.
func (s *ProductSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     json.RawMessage `json:"id"`
		Title  string          `json:"title"`
		Name   string          `json:"name"`
		Image  string          `json:"image"`
		Images []string        `json:"images"`
		Price  float64         `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	image := raw.Image
	if len(raw.Images) > 0 {
		image = raw.Images[0]
	}
	*s = ProductSummary{
		ID:    id,
		Name:  firstNonEmpty(raw.Title, raw.Name),
		Image: image,
		Price: raw.Price,
	}
	return nil
}

// decodeID accepts both string and numeric identifiers.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode product id: %w", err)
	}
	return n.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResultPage is one page of catalog search results.
type ResultPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Pages int       `json:"pages"`
}

// Clone returns a copy whose Items slice is not shared.
func (r ResultPage) Clone() ResultPage {
	out := r
	out.Items = append([]Product(nil), r.Items...)
	if out.Items == nil {
		out.Items = []Product{}
	}
	return out
}

// PriceRange bounds the prices available in a category.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FacetValues are the selectable filter options for a category. Category is
// the category they were fetched for; "" means the global catalog.
type FacetValues struct {
	Category   string     `json:"category"`
	Brands     []string   `json:"brands"`
	PriceRange PriceRange `json:"price_range"`
}

// DefaultFacets are shown before any facet response has arrived.
func DefaultFacets() FacetValues {
	return FacetValues{
		Brands:     []string{},
		PriceRange: PriceRange{Min: 0, Max: 100000},
	}
}

// Clone returns a copy whose Brands slice is not shared.
func (f FacetValues) Clone() FacetValues {
	out := f
	out.Brands = append([]string(nil), f.Brands...)
	if out.Brands == nil {
		out.Brands = []string{}
	}
	return out
}
