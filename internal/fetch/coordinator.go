// Package fetch keeps the catalog grid and its facet values in step with the
// current filter state.
package fetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/domain"
)

// Snapshot is a copy of everything the catalog view renders.
type Snapshot struct {
	State   domain.FilterState `json:"state"`
	Results domain.ResultPage  `json:"results"`
	Facets  domain.FacetValues `json:"facets"`
	Loading bool               `json:"loading"`
	// FacetsLoading is true while facet values are being fetched. During a
	// category change Facets holds the defaults for the new category until
	// its values arrive; if that fetch fails the previous values return.
	FacetsLoading bool `json:"facets_loading"`
	// LastError describes the most recent failed results fetch. It is
	// cleared by the next successful one.
	LastError string `json:"last_error,omitempty"`
}

// Coordinator issues the results and facet fetches for each new filter state
// and commits a response only while it is the latest of its kind. Failed
// fetches keep the last good data.
type Coordinator struct {
	ctx      context.Context
	searcher catalog.Searcher
	pageSize int
	logger   *slog.Logger

	mu            sync.Mutex
	idle          *sync.Cond
	state         domain.FilterState
	hasState      bool
	results       domain.ResultPage
	facets        domain.FacetValues
	loading       bool
	facetsLoading bool
	lastErr       string
	resultsGen    uint64
	facetsGen     uint64
	inflight      int
}

// New creates a coordinator whose fetches run under ctx.
func New(ctx context.Context, searcher catalog.Searcher, pageSize int, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		ctx:      ctx,
		searcher: searcher,
		pageSize: pageSize,
		logger:   logger,
		results:  domain.ResultPage{Items: []domain.Product{}, Pages: 1},
		facets:   domain.DefaultFacets(),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Update switches the coordinator to state. Results are always refetched;
// facets only when the category differs from the previous state. An update
// to the current state is ignored.
func (c *Coordinator) Update(state domain.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasState && c.state.Equal(state) {
		return
	}
	categoryChanged := !c.hasState || c.state.Category != state.Category
	c.state = state.Clone()
	c.hasState = true

	c.startResultsLocked()
	if categoryChanged {
		c.startFacetsLocked(false)
	}
}

// Refresh refetches results and facets for the current state, dropping any
// cached facet values first.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasState {
		return
	}
	c.startResultsLocked()
	c.startFacetsLocked(true)
}

// Snapshot returns a copy of the current view.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state.Clone()
	if !c.hasState {
		state = domain.NewFilterState()
	}
	facets := c.facets.Clone()
	if c.facetsLoading && c.facets.Category != state.Category {
		facets = domain.DefaultFacets()
		facets.Category = state.Category
	}
	return Snapshot{
		State:         state,
		Results:       c.results.Clone(),
		Facets:        facets,
		Loading:       c.loading,
		FacetsLoading: c.facetsLoading,
		LastError:     c.lastErr,
	}
}

// Wait blocks until no fetch is in flight.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
}

func (c *Coordinator) startResultsLocked() {
	c.resultsGen++
	c.loading = true
	c.inflight++
	go c.fetchResults(c.resultsGen, c.state.Clone())
}

func (c *Coordinator) startFacetsLocked(fresh bool) {
	c.facetsGen++
	c.facetsLoading = true
	c.inflight++
	go c.fetchFacets(c.facetsGen, c.state.Category, fresh)
}

func (c *Coordinator) fetchResults(gen uint64, state domain.FilterState) {
	defer c.done()

	page, err := c.searcher.Search(c.ctx, state, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.resultsGen {
		fetchTotal.WithLabelValues(kindResults, "stale").Inc()
		c.logger.DebugContext(c.ctx, "discarding stale results",
			slog.Uint64("generation", gen),
			slog.Uint64("current_generation", c.resultsGen),
		)
		return
	}

	c.loading = false
	if err != nil {
		fetchTotal.WithLabelValues(kindResults, "error").Inc()
		c.lastErr = err.Error()
		c.logger.WarnContext(c.ctx, "catalog search failed, keeping previous results",
			slog.Uint64("generation", gen),
			slog.String("category", state.Category),
			slog.Int("page", state.Page),
			slog.String("error", err.Error()),
		)
		return
	}

	fetchTotal.WithLabelValues(kindResults, "ok").Inc()
	c.lastErr = ""
	c.results = page.Clone()
	if c.results.Pages < 1 {
		c.results.Pages = 1
	}
}

func (c *Coordinator) fetchFacets(gen uint64, category string, fresh bool) {
	defer c.done()

	if inv, ok := c.searcher.(catalog.FacetInvalidator); ok && fresh {
		if err := inv.Invalidate(c.ctx, category); err != nil {
			c.logger.WarnContext(c.ctx, "facet cache invalidation failed",
				slog.String("category", category),
				slog.String("error", err.Error()),
			)
		}
	}

	facets, err := c.searcher.Facets(c.ctx, category)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.facetsGen {
		fetchTotal.WithLabelValues(kindFacets, "stale").Inc()
		c.logger.DebugContext(c.ctx, "discarding stale facets",
			slog.Uint64("generation", gen),
			slog.String("category", category),
		)
		return
	}

	c.facetsLoading = false
	if err != nil {
		fetchTotal.WithLabelValues(kindFacets, "error").Inc()
		c.logger.WarnContext(c.ctx, "catalog facets failed, keeping previous values",
			slog.Uint64("generation", gen),
			slog.String("category", category),
			slog.String("retained_category", c.facets.Category),
			slog.String("error", err.Error()),
		)
		return
	}

	fetchTotal.WithLabelValues(kindFacets, "ok").Inc()
	c.facets = facets.Clone()
	c.facets.Category = category
}

func (c *Coordinator) done() {
	c.mu.Lock()
	c.inflight--
	c.idle.Broadcast()
	c.mu.Unlock()
}
