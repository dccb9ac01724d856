package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/repository"
)

// AlertHandler serves the alert review endpoints.
type AlertHandler struct {
	alerts *repository.AlertRepo
	logger *slog.Logger
}

func NewAlertHandler(alerts *repository.AlertRepo, logger *slog.Logger) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{alerts: alerts, logger: logger}
}

// List returns alerts newest-first, filterable by invoice_id, severity and
// status.
func (h *AlertHandler) List(c *gin.Context) {
	filter := repository.AlertFilter{
		Severity: c.Query("severity"),
		Status:   c.Query("status"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	if raw := c.Query("invoice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, fmt.Errorf("invalid invoice_id: %w", common.ErrInvalidInput))
			return
		}
		filter.InvoiceID = &id
	}

	alerts, err := h.alerts.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// Resolve marks an alert as handled.
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid alert id: %w", common.ErrInvalidInput))
		return
	}

	if err := h.alerts.Resolve(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("alert.resolved", "alert_id", id)
	c.JSON(http.StatusOK, gin.H{"status": "resolved", "alert_id": id})
}
