package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
)

type anonymizerHealth interface {
	Health(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	db         *sqlx.DB
	anonymizer anonymizerHealth
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, db *sqlx.DB, anonymizer anonymizerHealth) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, anonymizer: anonymizer}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready checks the database and the voice anonymizer. The anonymizer being
// down degrades readiness but does not fail it: only anonymous audio uploads
// depend on it.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}

	payload := gin.H{"status": "ok", "anonymizer": "ok"}
	if h.anonymizer != nil {
		if err := h.anonymizer.Health(ctx); err != nil {
			payload["anonymizer"] = "unreachable"
		}
	}
	c.JSON(http.StatusOK, payload)
}
