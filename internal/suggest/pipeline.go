// Package suggest drives the search box: debounced suggestion lookups with a
// fallback source and generation-stamped commits.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/internal/debounce"
	"github.com/utafrali/storefront-browse/internal/domain"
)

// Config tunes the pipeline.
type Config struct {
	Debounce time.Duration
	MinChars int
	Limit    int
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: 300 * time.Millisecond,
		MinChars: 2,
		Limit:    6,
	}
}

// Phase is where the pipeline is for the current text.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePending  Phase = "pending"
	PhaseFetching Phase = "fetching"
	PhaseReady    Phase = "ready"
)

// Snapshot is a copy of the pipeline's visible state.
type Snapshot struct {
	Text       string                  `json:"text"`
	Items      []domain.ProductSummary `json:"items"`
	Visible    bool                    `json:"visible"`
	Phase      Phase                   `json:"phase"`
	Generation uint64                  `json:"generation"`
}

type request struct {
	text string
	gen  uint64
}

// Pipeline owns the suggestion list. Only a response stamped with the current
// generation may change it; every text change, dismissal or reset starts a
// new generation.
type Pipeline struct {
	ctx      context.Context
	source   catalog.Suggester
	cfg      Config
	logger   *slog.Logger
	debounce *debounce.Scheduler[request]

	mu       sync.Mutex
	idle     *sync.Cond
	text     string
	items    []domain.ProductSummary
	visible  bool
	phase    Phase
	gen      uint64
	inflight int
}

// New creates a pipeline whose lookups run under ctx. Cancelling ctx aborts
// lookups still in flight.
func New(ctx context.Context, source catalog.Suggester, cfg Config, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		ctx:      ctx,
		source:   source,
		cfg:      cfg,
		logger:   logger,
		debounce: debounce.New[request](),
		phase:    PhaseIdle,
	}
	p.idle = sync.NewCond(&p.mu)
	return p
}

// SetText records a keystroke. Text shorter than the minimum clears and hides
// the list without a lookup; otherwise a lookup is armed after the debounce
// interval.
func (p *Pipeline) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.text = text
	p.gen++

	if utf8.RuneCountInString(text) < p.cfg.MinChars {
		p.debounce.Cancel()
		p.clearLocked()
		return
	}

	p.phase = PhasePending
	p.debounce.Schedule(request{text: text, gen: p.gen}, p.cfg.Debounce, p.fire)
}

// Dismiss handles an interaction outside the search box: the list is hidden
// and cleared, pending work is dropped, and the text is kept.
func (p *Pipeline) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.debounce.Cancel()
	p.gen++
	p.clearLocked()
}

// Submit takes the current text for a catalog search and resets the box. It
// reports false when the text is blank.
func (p *Pipeline) Submit() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := strings.TrimSpace(p.text)
	if text == "" {
		return "", false
	}
	p.resetLocked()
	return text, true
}

// Select resets the box after the shopper picked a suggestion.
func (p *Pipeline) Select() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// Close drops pending work. Lookups in flight finish but cannot commit.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.debounce.Cancel()
	p.gen++
}

// Snapshot returns a copy of the visible state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		Text:       p.text,
		Items:      append([]domain.ProductSummary{}, p.items...),
		Visible:    p.visible,
		Phase:      p.phase,
		Generation: p.gen,
	}
}

// Wait blocks until no lookup is in flight. It does not wait for an armed
// debounce timer.
func (p *Pipeline) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.inflight > 0 {
		p.idle.Wait()
	}
}

func (p *Pipeline) fire(req request) {
	p.mu.Lock()
	if req.gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.phase = PhaseFetching
	p.inflight++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inflight--
		p.idle.Broadcast()
		p.mu.Unlock()
	}()

	items, err := p.lookup(req)
	p.commit(req, items, err)
}

// lookup asks the suggestion endpoint and, if that fails, the product
// listing. The fallback fires immediately; the keystroke was already
// debounced.
func (p *Pipeline) lookup(req request) ([]domain.ProductSummary, error) {
	items, err := p.source.Suggest(p.ctx, req.text, p.cfg.Limit)
	if err == nil {
		suggestRequests.WithLabelValues("primary", "ok").Inc()
		return items, nil
	}
	suggestRequests.WithLabelValues("primary", "error").Inc()
	suggestFallbacks.Inc()
	p.logger.WarnContext(p.ctx, "suggest lookup failed, falling back to product search",
		slog.String("text", req.text),
		slog.Uint64("generation", req.gen),
		slog.String("error", err.Error()),
	)

	items, err = p.source.SearchProducts(p.ctx, req.text, p.cfg.Limit)
	if err != nil {
		suggestRequests.WithLabelValues("fallback", "error").Inc()
		p.logger.WarnContext(p.ctx, "suggest fallback failed",
			slog.String("text", req.text),
			slog.Uint64("generation", req.gen),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	suggestRequests.WithLabelValues("fallback", "ok").Inc()
	return items, nil
}

func (p *Pipeline) commit(req request, items []domain.ProductSummary, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.gen != p.gen {
		suggestStaleDiscards.Inc()
		p.logger.DebugContext(p.ctx, "discarding stale suggestions",
			slog.String("text", req.text),
			slog.Uint64("generation", req.gen),
			slog.Uint64("current_generation", p.gen),
		)
		return
	}

	p.phase = PhaseReady
	if err != nil {
		p.items = nil
		return
	}
	if len(items) > p.cfg.Limit {
		items = items[:p.cfg.Limit]
	}
	p.items = append([]domain.ProductSummary(nil), items...)
	p.visible = true
}

func (p *Pipeline) clearLocked() {
	p.items = nil
	p.visible = false
	p.phase = PhaseIdle
}

func (p *Pipeline) resetLocked() {
	p.debounce.Cancel()
	p.gen++
	p.text = ""
	p.clearLocked()
}
