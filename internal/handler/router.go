package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senseops/diagd/internal/middleware"
)

type RouterDeps struct {
	Documents   *DocumentHandler
	Questions   *QuestionHandler
	Sensors     *SensorHandler
	Health      *HealthHandler
	Diagnostics *DiagnosticsHandler
	MCP         *MCPHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents", deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)

	questionGroup := api.Group("")
	questionGroup.Use(middleware.RateLimit(time.Second))
	questionGroup.POST("/question", deps.Questions.Ask)
	api.GET("/models", deps.Questions.Models)

	api.POST("/sensors/add", deps.Sensors.Add)
	api.GET("/sensors/all", deps.Sensors.ListAll)
	api.GET("/sensors/by-sensor/:sensor_id", deps.Sensors.ListBySensor)
	api.DELETE("/sensors/clear-all", deps.Sensors.ClearAll)
	api.POST("/sensors/populate", deps.Sensors.Populate)

	api.GET("/health/analysis", deps.Health.AnalyzeAll)
	api.GET("/health/analysis/:sensor_id", deps.Health.AnalyzeSensor)
	api.GET("/health/summary", deps.Health.Summary)

	api.POST("/diagnostics/sensor/:sensor_id/analysis", deps.Diagnostics.Analyze)

	api.POST("/mcp/search", deps.MCP.Search)
	api.POST("/mcp/update-sampled-at", deps.MCP.UpdateSampledAt)
	api.POST("/mcp/summary", deps.MCP.Summary)
	api.GET("/mcp/tools", deps.MCP.Tools)
}
