package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senseops/diagd/internal/pkg/errcode"
	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/repo"
)

const maxAgentSearchLimit = 10000

// MCPHandler exposes the narrow data-access surface used by LLM agents.
// Writes are limited to the sampled_at column.
type MCPHandler struct {
	sensors *repo.SensorRepo
}

func NewMCPHandler(sensors *repo.SensorRepo) *MCPHandler {
	return &MCPHandler{sensors: sensors}
}

type mcpSearchRequest struct {
	SensorID  string     `json:"sensor_id"`
	AssetID   string     `json:"asset_id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Limit     int        `json:"limit"`
	OrderBy   string     `json:"order_by"`
	OrderDesc bool       `json:"order_desc"`
}

func (h *MCPHandler) Search(c *gin.Context) {
	var req mcpSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > maxAgentSearchLimit {
		response.Error(c, errcode.ErrInvalid, "limit must be between 1 and 10000")
		return
	}
	readings, err := h.sensors.Search(c.Request.Context(), repo.SensorFilter{
		SensorID:  req.SensorID,
		AssetID:   req.AssetID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Limit:     limit,
		OrderBy:   req.OrderBy,
		OrderDesc: req.OrderDesc,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(readings), "readings": readings})
}

type mcpUpdateRequest struct {
	ID        string    `json:"id"`
	SampledAt time.Time `json:"sampled_at"`
}

func (h *MCPHandler) UpdateSampledAt(c *gin.Context) {
	var req mcpUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.ID == "" || req.SampledAt.IsZero() {
		response.Error(c, errcode.ErrInvalid, "id and sampled_at are required")
		return
	}
	if err := h.sensors.UpdateSampledAt(c.Request.Context(), req.ID, req.SampledAt); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

type mcpSummaryRequest struct {
	SensorID string `json:"sensor_id"`
}

func (h *MCPHandler) Summary(c *gin.Context) {
	var req mcpSummaryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	summary, err := h.sensors.Summary(c.Request.Context(), req.SensorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

type toolSpec struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
}

var agentTools = []toolSpec{
	{
		Name:        "search",
		Description: "Search sensor readings with optional filters.",
		Parameters: map[string]string{
			"sensor_id":  "string, optional",
			"asset_id":   "string, optional",
			"start_date": "RFC3339 timestamp, optional",
			"end_date":   "RFC3339 timestamp, optional",
			"limit":      "int, 1-10000, default 100",
			"order_by":   "sampled_at|created_at|sensor_id|asset_id|temperature|gateway_signal",
			"order_desc": "bool",
		},
	},
	{
		Name:        "update-sampled-at",
		Description: "Correct the sampled_at timestamp of one reading. No other column is writable.",
		Parameters: map[string]string{
			"id":         "string, required",
			"sampled_at": "RFC3339 timestamp, required",
		},
	},
	{
		Name:        "summary",
		Description: "Aggregate counts, date range and averages, optionally for one sensor.",
		Parameters: map[string]string{
			"sensor_id": "string, optional",
		},
	},
}

func (h *MCPHandler) Tools(c *gin.Context) {
	response.Success(c, gin.H{"tools": agentTools})
}
