package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/logger"
)

// Pinger - зависимость, доступность которой проверяет /healthz
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc адаптирует функцию к Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			logger.CtxWithError(ctx, "Health check failed", err, "dependency", name)
			result[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "up"
	}

	c.JSON(status, gin.H{
		"status": http.StatusText(status),
		"checks": result,
	})
}
