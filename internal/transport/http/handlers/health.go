package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports the outcome of each dependency probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type readinessCheck struct {
	name  string
	probe func(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checks    []readinessCheck
}

// HealthOption customises a HealthHandler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for the readiness
// endpoint.
func WithReadinessCheck(name string, probe func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandler) {
		if name == "" || probe == nil {
			return
		}
		h.checks = append(h.checks, readinessCheck{name: name, probe: probe})
	}
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status returns liveness and the process start time.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness probes each registered dependency and returns 503 when any fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	response := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}

	for _, check := range h.checks {
		if err := check.probe(ctx); err != nil {
			status = http.StatusServiceUnavailable
			response.Status = "not ready"
			response.Checks[check.name] = err.Error()
			continue
		}
		response.Checks[check.name] = "ok"
	}

	c.JSON(status, response)
}
