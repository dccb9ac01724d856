package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bevscan/bevscan/internal/pipeline"
	"github.com/bevscan/bevscan/internal/repository"
)

// HealthHandler serves liveness and processing-statistics endpoints.
type HealthHandler struct {
	pool     *pgxpool.Pool
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

func NewHealthHandler(pool *pgxpool.Pool, pl *pipeline.Pipeline, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{pool: pool, pipeline: pl, logger: logger}
}

// Health reports service and database status.
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "up"}
	code := http.StatusOK

	if h.pool != nil {
		if err := repository.HealthCheck(c.Request.Context(), h.pool); err != nil {
			h.logger.Error("health.db", "error", err)
			status["status"] = "degraded"
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, status)
}

// Stats reports OCR and pipeline processing statistics.
func (h *HealthHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Stats())
}
