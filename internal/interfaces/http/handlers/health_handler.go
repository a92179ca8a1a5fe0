package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// Check adapts a probe function to HealthChecker.
type Check struct {
	Component string
	Probe     func(ctx context.Context) error
}

func (c Check) Name() string                    { return c.Component }
func (c Check) Check(ctx context.Context) error { return c.Probe(ctx) }

// HealthRecorder exports per-component probe results.
type HealthRecorder interface {
	RecordHealth(component string, up bool)
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
	recorder HealthRecorder
	logger   logging.Logger
}

func NewHealthHandler(version string, recorder HealthRecorder, logger logging.Logger, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
		recorder: recorder,
		logger:   logger,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness answers 200 while the process runs. No dependency is checked.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness answers 503 when any dependency probe fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Components: h.checkAll(ctx)}
	status := http.StatusOK
	for name, c := range resp.Components {
		if c.Status != "healthy" {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			h.logger.Warn("dependency unhealthy", logging.String("component", name), logging.String("error", c.Error))
		}
	}
	writeJSON(w, status, resp)
}

// checkAll runs every probe concurrently.
func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	results := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)

			cc := ComponentCheck{Status: "healthy", Latency: time.Since(start).Truncate(time.Microsecond).String()}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			if h.recorder != nil {
				h.recorder.RecordHealth(c.Name(), err == nil)
			}

			mu.Lock()
			results[c.Name()] = cc
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}
