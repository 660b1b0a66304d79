package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/utafrali/FocusGate/pkg/httputil"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Status is the health state of a component or of the whole service.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Response is the JSON body of the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single dependency check.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type registration struct {
	check    Checker
	critical bool
}

// Handler serves liveness and readiness checks. A failing critical check
// makes the service unready (503); a failing non-critical check only marks
// it degraded.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]registration
	timeout time.Duration
}

// NewHandler creates a health handler with a 5 second readiness budget.
func NewHandler() *Handler {
	return &Handler{
		checks:  make(map[string]registration),
		timeout: 5 * time.Second,
	}
}

// RegisterCritical adds a check whose failure makes the service unready.
func (h *Handler) RegisterCritical(name string, check Checker) {
	h.register(name, check, true)
}

// RegisterNonCritical adds a check whose failure only degrades the service.
func (h *Handler) RegisterNonCritical(name string, check Checker) {
	h.register(name, check, false)
}

func (h *Handler) register(name string, check Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = registration{check: check, critical: critical}
}

// LivenessHandler always reports up while the process is serving.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every registered check concurrently.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		status := http.StatusOK
		if resp.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}

// Check runs all registered checks and aggregates their results.
func (h *Handler) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	regs := make(map[string]registration, len(h.checks))
	for name, reg := range h.checks {
		names = append(names, name)
		regs[name] = reg
	}
	h.mu.RUnlock()
	sort.Strings(names)

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, reg registration) {
			defer wg.Done()
			res := CheckResult{Status: StatusUp, Critical: reg.critical}
			if err := reg.check(ctx); err != nil {
				res.Status = StatusDown
				res.Error = err.Error()
			}
			results[i] = res
		}(i, regs[name])
	}
	wg.Wait()

	overall := StatusUp
	checks := make(map[string]CheckResult, len(names))
	for i, name := range names {
		res := results[i]
		checks[name] = res
		if res.Status == StatusDown {
			if res.Critical {
				overall = StatusDown
			} else if overall == StatusUp {
				overall = StatusDegraded
			}
		}
	}

	return Response{Status: overall, Timestamp: time.Now().UTC(), Checks: checks}
}
