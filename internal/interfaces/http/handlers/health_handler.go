package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/pkg/logger"
)

// Pinger is a dependency pinged by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
	log     logger.Logger
}

// NewHealthHandler creates a HealthHandler over the named dependencies.
// Nil pingers are skipped.
func NewHealthHandler(checks map[string]Pinger, log logger.Logger) *HealthHandler {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{checks: live, timeout: 2 * time.Second, log: log}
}

// LivenessCheck reports that the process is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()})
}

// ReadinessCheck pings every dependency concurrently.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	checks := h.performChecks(c.Request.Context())

	status, httpStatus := "ready", http.StatusOK
	for _, s := range checks {
		if s != "ok" {
			status, httpStatus = "unavailable", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checks))
	)
	for name, p := range h.checks {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			status := "ok"
			if err := p.Ping(ctx); err != nil {
				h.log.Warn(ctx, "Readiness check failed", logger.String("dependency", name), logger.Err(err))
				status = "error"
			}
			mu.Lock()
			checks[name] = status
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return checks
}
