package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKey_IsValid(t *testing.T) {
	for _, k := range ValidSortKeys() {
		assert.True(t, k.IsValid(), k)
	}
	assert.False(t, SortKey("cheapest").IsValid())
	assert.False(t, SortKey("").IsValid())
}

func TestFilterKey_IsValid(t *testing.T) {
	assert.True(t, KeyBrand.IsValid())
	assert.False(t, FilterKey("color").IsValid())
}

func TestFilterState_CloneDoesNotSharePrices(t *testing.T) {
	s := NewFilterState()
	s.MinPrice = Price(100)

	c := s.Clone()
	*c.MinPrice = 200

	assert.Equal(t, 100.0, *s.MinPrice)
	assert.True(t, s.Equal(s.Clone()))
}

func TestFilterState_SameFiltersIgnoresPage(t *testing.T) {
	a := NewFilterState()
	a.Brand = "LG"
	b := a.Clone()
	b.Page = 4

	assert.True(t, a.SameFilters(b))
	assert.False(t, a.Equal(b))

	b.MaxPrice = Price(10)
	assert.False(t, a.SameFilters(b))
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	brand := "LG"
	assert.False(t, Patch{Brand: &brand}.IsEmpty())
}

func TestProductSummary_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ProductSummary
	}{
		{
			name: "title wins over name",
			in:   `{"id":"p1","title":"iPhone 15","name":"iphone-15","images":["a.jpg","b.jpg"],"price":39999}`,
			want: ProductSummary{ID: "p1", Name: "iPhone 15", Image: "a.jpg", Price: 39999},
		},
		{
			name: "name fallback and numeric id",
			in:   `{"id":42,"name":"Galaxy S24","price":31999.5}`,
			want: ProductSummary{ID: "42", Name: "Galaxy S24", Price: 31999.5},
		},
		{
			name: "single image field",
			in:   `{"id":"p2","name":"Pixel","image":"p.jpg","price":1}`,
			want: ProductSummary{ID: "p2", Name: "Pixel", Image: "p.jpg", Price: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ProductSummary
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProduct_Unmarshal(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"title":"ThinkPad","brand":"Lenovo","price":45000,"images":["t.jpg"],"in_stock":false}`), &p))

	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "ThinkPad", p.Name)
	assert.Equal(t, "Lenovo", p.Brand)
	assert.False(t, p.InStock)
	assert.Equal(t, []string{"t.jpg"}, p.Images)

	var q Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","name":"Mouse","price":10}`), &q))
	assert.True(t, q.InStock, "missing in_stock defaults to available")
}

func TestProduct_UnmarshalRejectsBadID(t *testing.T) {
	var p Product
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"nested":true}}`), &p))
}

func TestFacetValues_Defaults(t *testing.T) {
	f := DefaultFacets()
	assert.Empty(t, f.Brands)
	assert.NotNil(t, f.Brands)
	assert.Equal(t, PriceRange{Min: 0, Max: 100000}, f.PriceRange)
}

func TestResultPage_CloneNeverNil(t *testing.T) {
	r := ResultPage{}.Clone()
	assert.NotNil(t, r.Items)
}
