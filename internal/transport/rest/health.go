package rest

import (
	"context"
	"net/http"
	"time"
)

// storePinger is the minimal interface for store health checks.
type storePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store   storePinger
	driver  string
	version string
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. driver names the chain store
// component in /health output.
func NewHealthHandler(store storePinger, driver, version string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, version: version, timeout: 3 * time.Second}
}

// HealthResponse is the JSON response for /live, /ready and /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready is the readiness probe: 200 when the store answers, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if comp := h.pingStore(r.Context()); comp.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "down", Timestamp: time.Now()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Health reports the store status with ping latency and the build version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	comp := h.pingStore(r.Context())

	status := http.StatusOK
	if comp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     comp.Status,
		Version:    h.version,
		Components: map[string]CompStatus{"store:" + h.driver: comp},
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) pingStore(ctx context.Context) CompStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		return CompStatus{Status: "down", Error: err.Error()}
	}
	return CompStatus{Status: "ok", Latency: time.Since(start).String()}
}
