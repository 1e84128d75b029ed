package domain

// SortKey orders catalog search results.
type SortKey string

// Sort options accepted by the catalog search endpoint.
const (
	SortPopular   SortKey = "popular"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNew       SortKey = "new"
	SortRating    SortKey = "rating"
)

// DefaultSort is applied when the address carries no sort_by.
const DefaultSort = SortPopular

// ValidSortKeys returns the list of valid sort options.
func ValidSortKeys() []SortKey {
	return []SortKey{SortPopular, SortPriceAsc, SortPriceDesc, SortNew, SortRating}
}

// IsValid reports whether s is one of the known sort options.
func (s SortKey) IsValid() bool {
	for _, k := range ValidSortKeys() {
		if k == s {
			return true
		}
	}
	return false
}

// FilterKey names one parameter of the navigable address.
type FilterKey string

// Address parameter names. They double as FilterState field identifiers.
const (
	KeyCategory FilterKey = "category"
	KeySearch   FilterKey = "search"
	KeyMinPrice FilterKey = "min_price"
	KeyMaxPrice FilterKey = "max_price"
	KeyBrand    FilterKey = "brand"
	KeyInStock  FilterKey = "in_stock"
	KeySortBy   FilterKey = "sort_by"
	KeyPage     FilterKey = "page"
)

// FilterKeys returns every address parameter in canonical order.
func FilterKeys() []FilterKey {
	return []FilterKey{KeyCategory, KeySearch, KeyMinPrice, KeyMaxPrice, KeyBrand, KeyInStock, KeySortBy, KeyPage}
}

// IsValid reports whether k is a known address parameter.
func (k FilterKey) IsValid() bool {
	for _, fk := range FilterKeys() {
		if fk == k {
			return true
		}
	}
	return false
}

// FilterState is the typed view of the navigable address. Empty strings, nil
// prices, false InStock and DefaultSort mean "not set". Page is always >= 1.
type FilterState struct {
	Category string   `json:"category,omitempty"`
	Search   string   `json:"search,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	InStock  bool     `json:"in_stock,omitempty"`
	SortBy   SortKey  `json:"sort_by"`
	Page     int      `json:"page"`
}

// NewFilterState returns the state of an empty address.
func NewFilterState() FilterState {
	return FilterState{SortBy: DefaultSort, Page: 1}
}

// Clone returns a deep copy; price pointers are not shared.
func (s FilterState) Clone() FilterState {
	out := s
	out.MinPrice = clonePrice(s.MinPrice)
	out.MaxPrice = clonePrice(s.MaxPrice)
	return out
}

// Equal reports whether both states describe the same address.
func (s FilterState) Equal(o FilterState) bool {
	return s.SameFilters(o) && s.Page == o.Page
}

// SameFilters compares every field except Page.
func (s FilterState) SameFilters(o FilterState) bool {
	return s.Category == o.Category &&
		s.Search == o.Search &&
		equalPrice(s.MinPrice, o.MinPrice) &&
		equalPrice(s.MaxPrice, o.MaxPrice) &&
		s.Brand == o.Brand &&
		s.InStock == o.InStock &&
		s.SortBy == o.SortBy
}

// Price returns a pointer to v for use in FilterState literals.
func Price(v float64) *float64 {
	return &v
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Patch is a partial FilterState edit. A nil field is left unchanged. An
// empty string clears the corresponding parameter; prices are carried in
// their address form so that "" can clear them.
type Patch struct {
	Category *string  `json:"category,omitempty" validate:"omitempty,max=128"`
	Search   *string  `json:"search,omitempty" validate:"omitempty,max=256"`
	MinPrice *string  `json:"min_price,omitempty" validate:"omitempty,price"`
	MaxPrice *string  `json:"max_price,omitempty" validate:"omitempty,price"`
	Brand    *string  `json:"brand,omitempty" validate:"omitempty,max=128"`
	InStock  *bool    `json:"in_stock,omitempty"`
	SortBy   *SortKey `json:"sort_by,omitempty" validate:"omitempty,oneof=popular price_asc price_desc new rating"`
	Page     *int     `json:"page,omitempty" validate:"omitempty,gte=1"`
}

// IsEmpty reports whether the patch touches no field.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Chip is one removable active filter.
type Chip struct {
	Key   FilterKey `json:"key"`
	Value string    `json:"value"`
	Label string    `json:"label"`
}
