package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"taf-intake/internal/common/database"
	"taf-intake/internal/store"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	store   store.Store
	service string
	timeout time.Duration
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Ready reports "degraded" instead of failing when no database is configured,
// since the service still serves checks and empty listings.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	err := h.store.Ping(ctx)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": "ok", "time": time.Now().Format(time.RFC3339)})
	case stderrors.Is(err, database.ErrNotConfigured):
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "storage": "not configured", "time": time.Now().Format(time.RFC3339)})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "storage": err.Error(), "time": time.Now().Format(time.RFC3339)})
	}
}
