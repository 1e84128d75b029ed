package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
)

// BreakerConfig tunes the circuit breaker in front of one dependency.
type BreakerConfig struct {
	Name string
	// HalfOpenProbes is how many requests may test a recovering dependency.
	HalfOpenProbes uint32
	// Window is how often the failure counts reset while closed.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// The breaker trips once MinRequests have been seen in a window and at
	// least FailureRatio of them failed.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the settings used for the catalog service.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:           name,
		HalfOpenProbes: 1,
		Window:         time.Minute,
		Cooldown:       15 * time.Second,
		FailureRatio:   0.5,
		MinRequests:    5,
	}
}

// ErrCircuitOpen is returned, wrapped with apperrors.ErrServiceUnavail,
// when the breaker rejects a request without sending it.
var ErrCircuitOpen = gobreaker.ErrOpenState

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_client_circuit_breaker_state",
			Help: "Current state of the outbound circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_circuit_breaker_rejections_total",
			Help: "Requests rejected without being sent because the breaker was open",
		},
		[]string{"name"},
	)
)

// Breaker guards a Doer with a circuit breaker. 5xx responses count as
// failures. A request abandoned by its caller does not: sessions cancel
// superseded fetches all the time and that says nothing about the catalog.
type Breaker struct {
	next Doer
	cb   *gobreaker.CircuitBreaker[*http.Response]
	name string
}

// NewBreaker wraps next.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenProbes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*http.Response](settings),
		name: cfg.Name,
	}
}

// Do sends req through the breaker. A 5xx response is returned as the
// translated error with its body consumed.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, ParseResponseError(resp, b.name)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejections.WithLabelValues(b.name).Inc()
		return nil, fmt.Errorf("%s: %w: %w", b.name, err, apperrors.ErrServiceUnavail)
	}
	return resp, err
}

// State returns the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Counts returns the breaker's counts for the current window.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// drain discards what is left of a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
