package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/hapkiduki/desk-planner/internal/application/dto"
)

// HealthCheck probes one component and returns a short status message.
type HealthCheck func(ctx context.Context) (string, error)

// HealthHandler reports liveness and component checks.
type HealthHandler struct {
	version string
	started time.Time
	checks  map[string]HealthCheck
}

// NewHealthHandler creates the handler.
//
// Parameters:
//   - version: application version
//   - started: process start time, for uptime
//   - checks: named component probes
//
// Returns:
//   - *HealthHandler: the handler
func NewHealthHandler(version string, started time.Time, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, started: started, checks: checks}
}

// ServeHTTP implements http.Handler. Any failing check turns the response
// into 503 with status "unhealthy".
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Checks:  make(map[string]dto.HealthCheckResult, len(h.checks)),
	}

	for name, check := range h.checks {
		start := time.Now()
		msg, err := check(r.Context())
		result := dto.HealthCheckResult{
			Status:       "healthy",
			Message:      msg,
			ResponseTime: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
			resp.Status = "unhealthy"
		}
		resp.Checks[name] = result
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
