// Package querystate maps the flat navigable address onto a typed
// FilterState and back.
package querystate

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront-browse/internal/domain"
)

// Decode parses the known parameters of an address. Unknown parameters are
// ignored and malformed values are treated as absent.
func Decode(params url.Values) domain.FilterState {
	s := domain.NewFilterState()

	s.Category = params.Get(string(domain.KeyCategory))
	s.Search = params.Get(string(domain.KeySearch))
	s.Brand = params.Get(string(domain.KeyBrand))
	s.MinPrice = parsePrice(params.Get(string(domain.KeyMinPrice)))
	s.MaxPrice = parsePrice(params.Get(string(domain.KeyMaxPrice)))
	s.InStock = params.Get(string(domain.KeyInStock)) == "true"

	if sortBy := domain.SortKey(params.Get(string(domain.KeySortBy))); sortBy.IsValid() {
		s.SortBy = sortBy
	}
	if page, err := strconv.Atoi(params.Get(string(domain.KeyPage))); err == nil && page > 1 {
		s.Page = page
	}
	return s
}

// Parse decodes a raw query string such as "?category=tv&page=2". A string
// that is not a valid query decodes to the empty address.
func Parse(raw string) domain.FilterState {
	params, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return domain.NewFilterState()
	}
	return Decode(params)
}

// Values serializes s, omitting every field that is empty, false or default.
func Values(s domain.FilterState) url.Values {
	params := url.Values{}
	setString(params, domain.KeyCategory, s.Category)
	setString(params, domain.KeySearch, s.Search)
	if s.MinPrice != nil {
		params.Set(string(domain.KeyMinPrice), FormatPrice(*s.MinPrice))
	}
	if s.MaxPrice != nil {
		params.Set(string(domain.KeyMaxPrice), FormatPrice(*s.MaxPrice))
	}
	setString(params, domain.KeyBrand, s.Brand)
	if s.InStock {
		params.Set(string(domain.KeyInStock), "true")
	}
	if s.SortBy != "" && s.SortBy != domain.DefaultSort {
		params.Set(string(domain.KeySortBy), string(s.SortBy))
	}
	if s.Page > 1 {
		params.Set(string(domain.KeyPage), strconv.Itoa(s.Page))
	}
	return params
}

// Apply merges patch onto current. When the patch changes any field other
// than Page the result starts over at page 1, whatever page the patch asks
// for.
func Apply(current domain.FilterState, patch domain.Patch) domain.FilterState {
	next := current.Clone()

	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Search != nil {
		next.Search = strings.TrimSpace(*patch.Search)
	}
	if patch.MinPrice != nil {
		next.MinPrice = parsePrice(*patch.MinPrice)
	}
	if patch.MaxPrice != nil {
		next.MaxPrice = parsePrice(*patch.MaxPrice)
	}
	if patch.Brand != nil {
		next.Brand = *patch.Brand
	}
	if patch.InStock != nil {
		next.InStock = *patch.InStock
	}
	if patch.SortBy != nil {
		next.SortBy = domain.DefaultSort
		if patch.SortBy.IsValid() {
			next.SortBy = *patch.SortBy
		}
	}

	switch {
	case !next.SameFilters(current):
		next.Page = 1
	case patch.Page != nil && *patch.Page >= 1:
		next.Page = *patch.Page
	}
	if next.Page < 1 {
		next.Page = 1
	}
	return next
}

// Encode merges patch onto current and serializes the result.
func Encode(current domain.FilterState, patch domain.Patch) url.Values {
	return Values(Apply(current, patch))
}

// FormatPrice renders a price in the shortest form that parses back to the
// same value.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func setString(params url.Values, key domain.FilterKey, value string) {
	if value != "" {
		params.Set(string(key), value)
	}
}
