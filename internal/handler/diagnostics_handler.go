package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/senseops/diagd/internal/pkg/errcode"
	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/service"
)

type DiagnosticsHandler struct {
	diagnostics *service.DiagnosticsService
}

func NewDiagnosticsHandler(diagnostics *service.DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{diagnostics: diagnostics}
}

type diagnosisRequest struct {
	LLMProvider string `json:"llm_provider"`
	Model       string `json:"model"`
}

// Analyze runs the diagnostic session for one sensor.
func (h *DiagnosticsHandler) Analyze(c *gin.Context) {
	var req diagnosisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	diagnosis, err := h.diagnostics.Diagnose(c.Request.Context(), c.Param("sensor_id"), req.LLMProvider, req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, diagnosis)
}
