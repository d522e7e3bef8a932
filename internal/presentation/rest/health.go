package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

const serviceName = "guarantee-messaging"

// CheckFunc reports whether one dependency is usable.
type CheckFunc func(ctx context.Context) error

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	checks  map[string]CheckFunc
	metrics http.Handler
	clock   clockwork.Clock
	logger  *slog.Logger
}

// HealthOption configures a HealthHandler.
type HealthOption func(*HealthHandler)

// WithCheck adds a readiness check under name.
func WithCheck(name string, check CheckFunc) HealthOption {
	return func(h *HealthHandler) { h.checks[name] = check }
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) HealthOption {
	return func(hh *HealthHandler) { hh.metrics = h }
}

// WithClock sets the clock stamping responses.
func WithClock(c clockwork.Clock) HealthOption {
	return func(h *HealthHandler) { h.clock = c }
}

func NewHealthHandler(logger *slog.Logger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		checks: make(map[string]CheckFunc),
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns 200 if the process is alive.
func (h *HealthHandler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.response("UP", nil))
	}
}

// ReadinessHandler returns 200 when every registered check passes.
func (h *HealthHandler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		checks := make(map[string]string, len(names))
		code, overall := http.StatusOK, "UP"
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				checks[name] = fmt.Sprintf("DOWN: %v", err)
				code, overall = http.StatusServiceUnavailable, "DOWN"
				h.logger.Warn("readiness check failed", "check", name, "error", err)
				continue
			}
			checks[name] = "UP"
		}
		writeJSON(w, code, h.response(overall, checks))
	}
}

func (h *HealthHandler) response(status string, checks map[string]string) healthResponse {
	return healthResponse{
		Status:    status,
		Service:   serviceName,
		Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

// RegisterRoutes registers the health check and metrics routes on the provided mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.LivenessHandler())
	mux.HandleFunc("GET /readyz", h.ReadinessHandler())
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
