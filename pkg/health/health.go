// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// DefaultTimeout bounds one readiness probe.
const DefaultTimeout = 5 * time.Second

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Status is the health of the service or one dependency.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the probe body.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status     Status `json:"status"`
	Critical   bool   `json:"critical"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type check struct {
	name     string
	fn       Checker
	critical bool
}

// Handler runs the registered checkers. A failing critical checker makes
// the service unready (503); a failing non-critical one only degrades it.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
	now     func() time.Time
}

// NewHandler returns a Handler with no checkers.
func NewHandler() *Handler {
	return &Handler{
		checks:  make(map[string]check),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// SetTimeout changes how long a readiness probe waits for its checkers.
func (h *Handler) SetTimeout(d time.Duration) {
	h.mu.Lock()
	h.timeout = d
	h.mu.Unlock()
}

// RegisterCritical adds a checker whose failure takes the service down.
func (h *Handler) RegisterCritical(name string, checker Checker) {
	h.add(name, checker, true)
}

// RegisterNonCritical adds a checker whose failure degrades the service.
func (h *Handler) RegisterNonCritical(name string, checker Checker) {
	h.add(name, checker, false)
}

func (h *Handler) add(name string, checker Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check{name: name, fn: checker, critical: critical}
}

// Check runs every checker concurrently and folds the results.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	checks := make([]check, 0, len(h.checks))
	for _, c := range h.checks {
		checks = append(checks, c)
	}
	timeout := h.timeout
	h.mu.RUnlock()
	sort.Slice(checks, func(i, j int) bool { return checks[i].name < checks[j].name })

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := h.now()
			err := c.fn(ctx)
			res := CheckResult{
				Status:     StatusUp,
				Critical:   c.critical,
				DurationMS: h.now().Sub(start).Milliseconds(),
			}
			if err != nil {
				res.Status = StatusDown
				res.Error = err.Error()
			}
			results[i] = res
		}()
	}
	wg.Wait()

	resp := Response{Status: StatusUp, Timestamp: h.now().UTC()}
	if len(checks) > 0 {
		resp.Checks = make(map[string]CheckResult, len(checks))
	}
	for i, c := range checks {
		res := results[i]
		resp.Checks[c.name] = res
		if res.Status == StatusUp {
			continue
		}
		if c.critical {
			resp.Status = StatusDown
		} else if resp.Status == StatusUp {
			resp.Status = StatusDegraded
		}
	}
	return resp
}

// LivenessHandler answers 200 while the process runs.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, Response{Status: StatusUp, Timestamp: h.now().UTC()})
	}
}

// ReadinessHandler answers 503 when a critical dependency is down and 200
// otherwise.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		status := http.StatusOK
		if resp.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		write(w, status, resp)
	}
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
