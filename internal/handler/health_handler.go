package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by database.PostgresDB and redis.Client
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	service  string
	checkers map[string]HealthChecker
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler. Nil checkers are skipped,
// so optional backends can be passed unconditionally.
func NewHealthHandler(service string, checkers map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checkers))
	for name, checker := range checkers {
		if checker != nil {
			active[name] = checker
		}
	}
	return &HealthHandler{service: service, checkers: active, timeout: 2 * time.Second}
}

// Health returns basic health status
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
	})
}

// Ready checks if the service is ready to accept traffic
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	deps := gin.H{}
	for _, name := range names {
		if err := h.checkers[name].HealthCheck(ctx); err != nil {
			ready = false
			deps[name] = "disconnected"
			continue
		}
		deps[name] = "connected"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "not_ready",
			"service":      h.service,
			"dependencies": deps,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"service":      h.service,
		"dependencies": deps,
	})
}
