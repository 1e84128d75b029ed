package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/i18n"
	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
)

// Registry owns the open sessions and closes those left idle for longer than
// Config.IdleTTL.
type Registry struct {
	ctx     context.Context
	catalog catalog.Catalog
	cfg     Config
	dict    i18n.Translator
	logger  *slog.Logger
	nowFunc func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions run under ctx.
func NewRegistry(ctx context.Context, cat catalog.Catalog, cfg Config, dict i18n.Translator, logger *slog.Logger) *Registry {
	return &Registry{
		ctx:      ctx,
		catalog:  cat,
		cfg:      cfg,
		dict:     dict,
		logger:   logger,
		nowFunc:  time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session and navigates it to query.
func (r *Registry) Create(query string) *Session {
	s := newSession(r.ctx, uuid.NewString(), r.catalog, r.cfg, r.dict, r.logger, r.nowFunc())

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	sessionsActive.Inc()

	s.ctrl.Navigate(query)
	s.logger.Info("session created", slog.String("query", s.ctrl.Query()))
	return s
}

// Get returns the session with id and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	s.touch(r.nowFunc())
	return s, nil
}

// Delete closes and forgets the session with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return apperrors.NotFound("session", id)
	}
	sessionsActive.Dec()
	s.Close()
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes every session idle for longer than the configured TTL and
// returns how many it closed.
func (r *Registry) Evict() int {
	now := r.nowFunc()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
		sessionsActive.Dec()
		sessionsEvicted.Inc()
	}
	if len(idle) > 0 {
		r.logger.Info("evicted idle sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.cfg.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Close closes every session and waits for their requests to resolve.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
		sessionsActive.Dec()
	}
	for _, s := range all {
		s.Wait()
	}
}
