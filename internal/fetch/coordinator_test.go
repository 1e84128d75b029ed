package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/querystate"
)

var errCatalogDown = errors.New("catalog unavailable")

// scriptedSearcher answers from per-test functions and can hold individual
// requests until released.
type scriptedSearcher struct {
	mu          sync.Mutex
	searches    []domain.FilterState
	facetCalls  []string
	searchGates map[int]chan struct{}
	facetGates  map[string]chan struct{}
	search      func(state domain.FilterState) (domain.ResultPage, error)
	facets      func(category string) (domain.FacetValues, error)
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{
		searchGates: make(map[int]chan struct{}),
		facetGates:  make(map[string]chan struct{}),
		search: func(state domain.FilterState) (domain.ResultPage, error) {
			return domain.ResultPage{
				Items: []domain.Product{{ID: fmt.Sprintf("%s-p%d", state.Category, state.Page)}},
				Total: 1,
				Pages: 1,
			}, nil
		},
		facets: func(category string) (domain.FacetValues, error) {
			return domain.FacetValues{Brands: []string{category + "-brand"}, PriceRange: domain.PriceRange{Max: 100}}, nil
		},
	}
}

func (s *scriptedSearcher) holdPage(page int) func() {
	gate := make(chan struct{})
	s.mu.Lock()
	s.searchGates[page] = gate
	s.mu.Unlock()
	return func() { close(gate) }
}

func (s *scriptedSearcher) holdFacets(category string) func() {
	gate := make(chan struct{})
	s.mu.Lock()
	s.facetGates[category] = gate
	s.mu.Unlock()
	return func() { close(gate) }
}

func (s *scriptedSearcher) setSearch(fn func(domain.FilterState) (domain.ResultPage, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = fn
}

func (s *scriptedSearcher) setFacets(fn func(string) (domain.FacetValues, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets = fn
}

func (s *scriptedSearcher) Search(ctx context.Context, state domain.FilterState, limit int) (domain.ResultPage, error) {
	s.mu.Lock()
	s.searches = append(s.searches, state)
	gate := s.searchGates[state.Page]
	fn := s.search
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.ResultPage{}, ctx.Err()
		}
	}
	return fn(state)
}

func (s *scriptedSearcher) Facets(ctx context.Context, category string) (domain.FacetValues, error) {
	s.mu.Lock()
	s.facetCalls = append(s.facetCalls, category)
	gate := s.facetGates[category]
	fn := s.facets
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.FacetValues{}, ctx.Err()
		}
	}
	return fn(category)
}

func (s *scriptedSearcher) counts() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches), append([]string(nil), s.facetCalls...)
}

func newTestCoordinator(t *testing.T, s *scriptedSearcher) *Coordinator {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, s, 24, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCoordinator_InitialSnapshot(t *testing.T) {
	c := newTestCoordinator(t, newScriptedSearcher())

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, snap.Results.Pages)
	assert.NotNil(t, snap.Results.Items)
	assert.Equal(t, domain.DefaultFacets(), snap.Facets)
	assert.Equal(t, domain.NewFilterState(), snap.State)
}

func TestCoordinator_LaptopsScenario(t *testing.T) {
	s := newScriptedSearcher()
	s.setSearch(func(state domain.FilterState) (domain.ResultPage, error) {
		items := make([]domain.Product, 12)
		for i := range items {
			items[i] = domain.Product{ID: fmt.Sprint(i)}
		}
		return domain.ResultPage{Items: items, Total: 50, Pages: 3}, nil
	})
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("?category=laptops&sort_by=price_asc&page=2"))
	assert.True(t, c.Snapshot().Loading)
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 50, snap.Results.Total)
	assert.Equal(t, 3, snap.Results.Pages)
	assert.Len(t, snap.Results.Items, 12)
	assert.Equal(t, 2, snap.State.Page)

	s.mu.Lock()
	sent := s.searches[0]
	s.mu.Unlock()
	assert.Equal(t, "laptops", sent.Category)
	assert.Equal(t, domain.SortPriceAsc, sent.SortBy)
	assert.Equal(t, 2, sent.Page)
}

func TestCoordinator_FacetsOnlyOnCategoryChange(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	c.Update(querystate.Parse("category=tv&brand=LG"))
	c.Wait()
	c.Update(querystate.Parse("category=tv&brand=LG&page=2"))
	c.Wait()
	c.Update(querystate.Parse("category=laptops"))
	c.Wait()

	searches, facets := s.counts()
	assert.Equal(t, 4, searches)
	assert.Equal(t, []string{"tv", "laptops"}, facets)

	snap := c.Snapshot()
	assert.Equal(t, "laptops", snap.Facets.Category)
	assert.Equal(t, []string{"laptops-brand"}, snap.Facets.Brands)
}

// cachingSearcher records facet cache invalidations.
type cachingSearcher struct {
	*scriptedSearcher
	invalidated []string
}

func (s *cachingSearcher) Invalidate(_ context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, category)
	return nil
}

func TestCoordinator_RefreshInvalidatesCachedFacets(t *testing.T) {
	s := &cachingSearcher{scriptedSearcher: newScriptedSearcher()}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := New(ctx, s, 24, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	c.Update(querystate.Parse("category=laptops"))
	c.Wait()
	assert.Empty(t, s.invalidated)

	c.Refresh()
	c.Wait()

	_, facets := s.counts()
	assert.Equal(t, []string{"tv", "laptops", "laptops"}, facets)
	assert.Equal(t, []string{"laptops"}, s.invalidated)
}

func TestCoordinator_IdenticalStateIsIgnored(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	c.Update(querystate.Parse("category=tv&page=1"))
	c.Wait()

	searches, _ := s.counts()
	assert.Equal(t, 1, searches)
}

func TestCoordinator_FailureKeepsPreviousResults(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	good := c.Snapshot().Results

	s.setSearch(func(domain.FilterState) (domain.ResultPage, error) { return domain.ResultPage{}, errCatalogDown })
	c.Update(querystate.Parse("category=tv&page=2"))
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, good, snap.Results)
	assert.Equal(t, 2, snap.State.Page)
	assert.Contains(t, snap.LastError, "catalog unavailable")

	s.setSearch(func(state domain.FilterState) (domain.ResultPage, error) {
		return domain.ResultPage{Items: []domain.Product{{ID: "fresh"}}, Total: 1, Pages: 1}, nil
	})
	c.Refresh()
	c.Wait()
	snap = c.Snapshot()
	assert.Empty(t, snap.LastError)
	assert.Equal(t, "fresh", snap.Results.Items[0].ID)
}

func TestCoordinator_FacetFailureAfterCategoryChangeRetainsBrands(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	require.Equal(t, []string{"tv-brand"}, c.Snapshot().Facets.Brands)

	s.setFacets(func(string) (domain.FacetValues, error) { return domain.FacetValues{}, errCatalogDown })
	c.Update(querystate.Parse("category=laptops"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, []string{"tv-brand"}, snap.Facets.Brands)
	assert.Equal(t, "tv", snap.Facets.Category, "retained values keep the category they belong to")
	assert.False(t, snap.FacetsLoading)
	assert.Equal(t, "laptops", snap.State.Category)
}

func TestCoordinator_LateResultsAreDiscarded(t *testing.T) {
	s := newScriptedSearcher()
	releasePage2 := s.holdPage(2)
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv&page=2"))
	require.Eventually(t, func() bool {
		n, _ := s.counts()
		return n == 1
	}, time.Second, time.Millisecond)

	c.Update(querystate.Parse("category=tv&page=3"))
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return !snap.Loading && len(snap.Results.Items) == 1 && snap.Results.Items[0].ID == "tv-p3"
	}, time.Second, time.Millisecond)

	releasePage2()
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, "tv-p3", snap.Results.Items[0].ID)
	assert.False(t, snap.Loading)
}

func TestCoordinator_LoadingTracksLatestRequestOnly(t *testing.T) {
	s := newScriptedSearcher()
	releasePage3 := s.holdPage(3)
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv&page=2"))
	c.Update(querystate.Parse("category=tv&page=3"))

	// Page 2 resolves first but is stale; loading must stay on for page 3.
	require.Eventually(t, func() bool {
		n, _ := s.counts()
		return n == 2
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Snapshot().Loading)

	releasePage3()
	c.Wait()
	assert.False(t, c.Snapshot().Loading)
	assert.Equal(t, "tv-p3", c.Snapshot().Results.Items[0].ID)
}

func TestCoordinator_CategoryChangeHidesPreviousFacets(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()
	require.Equal(t, []string{"tv-brand"}, c.Snapshot().Facets.Brands)

	releaseLaptops := s.holdFacets("laptops")
	c.Update(querystate.Parse("category=laptops"))

	snap := c.Snapshot()
	assert.True(t, snap.FacetsLoading)
	assert.Equal(t, "laptops", snap.Facets.Category)
	assert.NotContains(t, snap.Facets.Brands, "tv-brand")
	assert.Equal(t, domain.DefaultFacets().PriceRange, snap.Facets.PriceRange)

	releaseLaptops()
	c.Wait()
	snap = c.Snapshot()
	assert.False(t, snap.FacetsLoading)
	assert.Equal(t, []string{"laptops-brand"}, snap.Facets.Brands)
}

func TestCoordinator_RefreshKeepsFacetsOfSameCategory(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Wait()

	release := s.holdFacets("tv")
	c.Refresh()

	snap := c.Snapshot()
	assert.True(t, snap.FacetsLoading)
	assert.Equal(t, []string{"tv-brand"}, snap.Facets.Brands)

	release()
	c.Wait()
}

func TestCoordinator_LateFacetsForOldCategoryAreDiscarded(t *testing.T) {
	s := newScriptedSearcher()
	releaseTV := s.holdFacets("tv")
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv"))
	c.Update(querystate.Parse("category=laptops"))
	require.Eventually(t, func() bool {
		return !c.Snapshot().FacetsLoading
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"laptops-brand"}, c.Snapshot().Facets.Brands)

	releaseTV()
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, "laptops", snap.Facets.Category)
	assert.Equal(t, []string{"laptops-brand"}, snap.Facets.Brands)
}

func TestCoordinator_SnapshotIsACopy(t *testing.T) {
	s := newScriptedSearcher()
	c := newTestCoordinator(t, s)

	c.Update(querystate.Parse("category=tv&min_price=10"))
	c.Wait()

	snap := c.Snapshot()
	snap.Results.Items[0].ID = "mutated"
	snap.Facets.Brands[0] = "mutated"
	*snap.State.MinPrice = 99

	again := c.Snapshot()
	assert.Equal(t, "tv-p1", again.Results.Items[0].ID)
	assert.Equal(t, "tv-brand", again.Facets.Brands[0])
	assert.Equal(t, 10.0, *again.State.MinPrice)
}
