package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-browse/internal/catalog/memory"
	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/suggest"
	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
	"github.com/utafrali/storefront-browse/pkg/pagination"
)

func testConfig() Config {
	return Config{
		PageSize:         2,
		PaginationWindow: 10,
		IdleTTL:          time.Minute,
		Suggest: suggest.Config{
			Debounce: 5 * time.Millisecond,
			MinChars: 2,
			Limit:    6,
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := NewRegistry(ctx, memory.NewDemo(), testConfig(), i18n.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(r.Close)
	return r
}

func productIDs(items []domain.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestSession_ViewAfterNavigation(t *testing.T) {
	r := newTestRegistry(t)

	s := r.Create("?category=laptops&sort_by=price_asc&page=2")
	s.Wait()
	v := s.View("en")

	assert.Equal(t, s.ID(), v.ID)
	assert.Equal(t, "category=laptops&page=2&sort_by=price_asc", v.Query)
	assert.Equal(t, 5, v.Total)
	assert.Equal(t, 3, v.Pages)
	assert.Equal(t, []string{"zenbook-14", "macbook-air-13"}, productIDs(v.Items))
	assert.Equal(t, []pagination.Button{
		{Page: 1},
		{Page: 2, Active: true},
		{Page: 3},
	}, v.Pagination)
	assert.Equal(t, "laptops", v.Facets.Category)
	assert.Equal(t, []string{"Apple", "Asus", "Lenovo"}, v.Facets.Brands)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Chips)
}

func TestSession_FilterEditsFlowIntoView(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("category=tv&page=2")
	s.Wait()

	brand := "LG"
	s.Controller().SetFilter(domain.Patch{Brand: &brand})
	s.Wait()

	v := s.View("uk")
	assert.Equal(t, "brand=LG&category=tv", v.Query)
	assert.Equal(t, 1, v.Filters.Page)
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, []domain.Chip{{Key: domain.KeyBrand, Value: "LG", Label: "Бренд: LG"}}, v.Chips)
	assert.Empty(t, v.Pagination)
}

func TestSession_SubmitSearch(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("category=tv")
	s.Wait()

	s.Suggestions().SetText("iphone")
	require.Eventually(t, func() bool {
		return s.Suggestions().Snapshot().Phase == suggest.PhaseReady
	}, time.Second, time.Millisecond)
	assert.Len(t, s.Suggestions().Snapshot().Items, 2)

	q, ok := s.SubmitSearch()
	require.True(t, ok)
	assert.Equal(t, "search=iphone", q)
	s.Wait()

	v := s.View("en")
	assert.Equal(t, "iphone", v.Filters.Search)
	assert.Equal(t, 2, v.Total)
	assert.Empty(t, v.Suggestions.Text)
	assert.False(t, v.Suggestions.Visible)
}

func TestSession_SubmitBlankKeepsAddress(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("category=tv")

	s.Suggestions().SetText("   ")
	q, ok := s.SubmitSearch()
	assert.False(t, ok)
	assert.Equal(t, "category=tv", q)
}

func TestSession_SelectSuggestion(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("")

	s.Suggestions().SetText("galaxy")
	assert.Equal(t, "/product/galaxy-s24", s.SelectSuggestion("galaxy-s24"))
	assert.Empty(t, s.Suggestions().Snapshot().Text)
}

func TestSession_SelectSuggestionEscapesProductID(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("")

	tests := map[string]string{
		"../admin":   "/product/..%2Fadmin",
		"tv/oled 55": "/product/tv%2Foled%2055",
		"a?b#c":      "/product/a%3Fb%23c",
		"iphone-15":  "/product/iphone-15",
	}
	for id, want := range tests {
		assert.Equal(t, want, s.SelectSuggestion(id), id)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Create("")
	s.Close()
	s.Close()
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := newTestRegistry(t)

	s := r.Create("category=tv")
	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Delete(s.ID()))
	assert.Equal(t, 0, r.Len())
	assert.True(t, errors.Is(r.Delete(s.ID()), apperrors.ErrNotFound))
}

func TestRegistry_EvictIdle(t *testing.T) {
	r := newTestRegistry(t)

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	stale := r.Create("category=tv")
	fresh := r.Create("category=laptops")

	advance(45 * time.Second)
	_, err := r.Get(fresh.ID())
	require.NoError(t, err)

	advance(30 * time.Second)
	assert.Equal(t, 1, r.Evict())

	_, err = r.Get(stale.ID())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = r.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestRegistry_Close(t *testing.T) {
	r := newTestRegistry(t)
	r.Create("category=tv")
	r.Create("category=laptops")

	r.Close()
	assert.Equal(t, 0, r.Len())
}
