// Package address holds the navigable address of a browse session: the flat
// set of query parameters that is the single source of truth for filters,
// sort order and page.
package address

import (
	"net/url"
	"sync"

	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/querystate"
)

// Reader is the read-only view of an address handed to everything except
// the component that writes it.
type Reader interface {
	Query() string
	Values() url.Values
	State() domain.FilterState
	Version() uint64
}

// Store is the address container. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	params  url.Values
	version uint64
}

var _ Reader = (*Store)(nil)

// New returns an empty address.
func New() *Store {
	return &Store{params: url.Values{}}
}

// Replace swaps in params and reports whether the address changed. The
// caller's map is copied.
func (s *Store) Replace(params url.Values) bool {
	next := clone(params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if next.Encode() == s.params.Encode() {
		return false
	}
	s.params = next
	s.version++
	return true
}

// Query returns the encoded address without a leading "?".
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Encode()
}

// Values returns a copy of the raw parameters.
func (s *Store) Values() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.params)
}

// State decodes the address.
func (s *Store) State() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return querystate.Decode(s.params)
}

// Version counts the writes that changed the address.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func clone(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, v := range params {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}
