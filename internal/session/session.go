// Package session bundles the per-shopper browse state: one address, the
// controller that writes it, the fetch coordinator and the suggestion
// pipeline.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/utafrali/storefront-browse/internal/address"
	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/controller"
	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/fetch"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/suggest"
	"github.com/utafrali/storefront-browse/pkg/pagination"
)

// Config sizes every session created by a Registry.
type Config struct {
	PageSize         int
	PaginationWindow int
	IdleTTL          time.Duration
	Suggest          suggest.Config
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:         24,
		PaginationWindow: 10,
		IdleTTL:          30 * time.Minute,
		Suggest:          suggest.DefaultConfig(),
	}
}

// View is everything a catalog page renders for one session.
type View struct {
	ID            string              `json:"id"`
	Query         string              `json:"query"`
	Filters       domain.FilterState  `json:"filters"`
	Items         []domain.Product    `json:"items"`
	Total         int                 `json:"total"`
	Pages         int                 `json:"pages"`
	Facets        domain.FacetValues  `json:"facets"`
	Loading       bool                `json:"loading"`
	FacetsLoading bool                `json:"facets_loading"`
	LastError     string              `json:"last_error,omitempty"`
	Pagination    []pagination.Button `json:"pagination"`
	Chips         []domain.Chip       `json:"chips"`
	Suggestions   suggest.Snapshot    `json:"suggestions"`
}

// Session is one shopper's browse state.
type Session struct {
	id     string
	cfg    Config
	cancel context.CancelFunc
	logger *slog.Logger

	ctrl    *controller.Controller
	fetch   *fetch.Coordinator
	suggest *suggest.Pipeline

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

func newSession(parent context.Context, id string, cat catalog.Catalog, cfg Config, dict i18n.Translator, logger *slog.Logger, now time.Time) *Session {
	ctx, cancel := context.WithCancel(parent)
	logger = logger.With(slog.String("session_id", id))

	coord := fetch.New(ctx, cat, cfg.PageSize, logger)
	return &Session{
		id:       id,
		cfg:      cfg,
		cancel:   cancel,
		logger:   logger,
		ctrl:     controller.New(address.New(), coord, dict, logger),
		fetch:    coord,
		suggest:  suggest.New(ctx, cat, cfg.Suggest, logger),
		lastSeen: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Controller returns the only writer of the session's address.
func (s *Session) Controller() *controller.Controller { return s.ctrl }

// Suggestions returns the session's search box pipeline.
func (s *Session) Suggestions() *suggest.Pipeline { return s.suggest }

// Refresh refetches results and facets for the current address.
func (s *Session) Refresh() { s.fetch.Refresh() }

// SubmitSearch takes the search box text and navigates to its results. It
// reports false, leaving the address alone, when the box is blank.
func (s *Session) SubmitSearch() (string, bool) {
	text, ok := s.suggest.Submit()
	if !ok {
		return s.ctrl.Query(), false
	}
	return s.ctrl.Search(text)
}

// SelectSuggestion resets the search box and returns the product page the
// shopper is sent to.
func (s *Session) SelectSuggestion(productID string) string {
	s.suggest.Select()
	return "/product/" + url.PathEscape(productID)
}

// View assembles the current view, labelling chips in lang.
func (s *Session) View(lang string) View {
	snap := s.fetch.Snapshot()
	buttons := pagination.Window(snap.State.Page, snap.Results.Pages, s.cfg.PaginationWindow)
	if buttons == nil {
		buttons = []pagination.Button{}
	}
	return View{
		ID:            s.id,
		Query:         s.ctrl.Query(),
		Filters:       snap.State,
		Items:         snap.Results.Items,
		Total:         snap.Results.Total,
		Pages:         snap.Results.Pages,
		Facets:        snap.Facets,
		Loading:       snap.Loading,
		FacetsLoading: snap.FacetsLoading,
		LastError:     snap.LastError,
		Pagination:    buttons,
		Chips:         s.ctrl.ActiveChips(lang),
		Suggestions:   s.suggest.Snapshot(),
	}
}

// Wait blocks until no fetch or lookup is in flight.
func (s *Session) Wait() {
	s.fetch.Wait()
	s.suggest.Wait()
}

// Close drops pending suggestion work and cancels requests in flight. It is
// safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.suggest.Close()
	s.cancel()
	s.logger.Debug("session closed")
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
