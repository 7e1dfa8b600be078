package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/service"
)

type HealthHandler struct {
	health *service.HealthService
}

func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// AnalyzeSensor evaluates the latest reading of one sensor.
func (h *HealthHandler) AnalyzeSensor(c *gin.Context) {
	report, err := h.health.CheckSensor(c.Request.Context(), c.Param("sensor_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

// AnalyzeAll evaluates every known sensor.
func (h *HealthHandler) AnalyzeAll(c *gin.Context) {
	reports, err := h.health.CheckAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(reports), "sensors": reports})
}

// Summary returns fleet-wide status counts.
func (h *HealthHandler) Summary(c *gin.Context) {
	summary, err := h.health.Summary(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}
