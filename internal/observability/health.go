package observability

import (
	"sync/atomic"
	"time"
)

// HealthChecker manages liveness and readiness state. The HTTP surface exposes
// it as /healthz (liveness) and /readyz (readiness).
type HealthChecker struct {
	ready     atomic.Bool
	startTime time.Time
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the service as ready to accept traffic. Readiness flips on
// only after recovery is complete: DB connected, snapshot restored, replay
// done.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the service is ready.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// Uptime returns time since process start.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}
