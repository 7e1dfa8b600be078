package handler

import (
	_ "embed"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/model"
	"github.com/senseops/diagd/internal/pkg/errcode"
	"github.com/senseops/diagd/internal/pkg/response"
	"github.com/senseops/diagd/internal/repo"
)

//go:embed sample_data.json
var sampleData []byte

type SensorHandler struct {
	sensors *repo.SensorRepo
}

func NewSensorHandler(sensors *repo.SensorRepo) *SensorHandler {
	return &SensorHandler{sensors: sensors}
}

type sensorReadingRequest struct {
	AssetID                  *string  `json:"asset_id"`
	SensorID                 *string  `json:"sensor_id"`
	SampledAt                string   `json:"sampled_at"`
	AccelPeakX               *float64 `json:"accel_peak_x"`
	AccelPeakY               *float64 `json:"accel_peak_y"`
	AccelPeakZ               *float64 `json:"accel_peak_z"`
	Temperature              *float64 `json:"temperature"`
	TemperatureAccelerometer *float64 `json:"temperature_accelerometer"`
	GatewaySignal            *int64   `json:"gateway_signal"`
}

func (r *sensorReadingRequest) toModel() (*model.SensorReading, error) {
	reading := &model.SensorReading{
		AssetID:                  r.AssetID,
		SensorID:                 r.SensorID,
		AccelPeakX:               r.AccelPeakX,
		AccelPeakY:               r.AccelPeakY,
		AccelPeakZ:               r.AccelPeakZ,
		Temperature:              r.Temperature,
		TemperatureAccelerometer: r.TemperatureAccelerometer,
		GatewaySignal:            r.GatewaySignal,
		SampledAt:                time.Now().UTC(),
	}
	if r.SampledAt != "" {
		ts, err := time.Parse(time.RFC3339, r.SampledAt)
		if err != nil {
			return nil, err
		}
		reading.SampledAt = ts
	}
	return reading, nil
}

// Add stores one reading.
func (h *SensorHandler) Add(c *gin.Context) {
	var req sensorReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reading, err := req.toModel()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "sampled_at must be RFC3339")
		return
	}
	if err := h.sensors.Insert(c.Request.Context(), reading); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reading)
}

// ListAll returns every stored reading.
func (h *SensorHandler) ListAll(c *gin.Context) {
	readings, err := h.sensors.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(readings), "readings": readings})
}

// ListBySensor returns the readings of one sensor.
func (h *SensorHandler) ListBySensor(c *gin.Context) {
	readings, err := h.sensors.ListBySensor(c.Request.Context(), c.Param("sensor_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(readings), "readings": readings})
}

// ClearAll deletes every reading.
func (h *SensorHandler) ClearAll(c *gin.Context) {
	deleted, err := h.sensors.DeleteAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}

type populateRequest struct {
	Clear bool `json:"clear"`
}

// Populate loads the embedded sample dataset, optionally clearing the
// table first.
func (h *SensorHandler) Populate(c *gin.Context) {
	var req populateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}

	var rows []sensorReadingRequest
	if err := json.Unmarshal(sampleData, &rows); err != nil {
		logutil.GetLogger(c.Request.Context()).Error("sample data corrupt", zap.Error(err))
		response.Error(c, errcode.ErrInternal, "sample data corrupt")
		return
	}

	ctx := c.Request.Context()
	cleared := int64(0)
	if req.Clear {
		deleted, err := h.sensors.DeleteAll(ctx)
		if err != nil {
			handleError(c, err)
			return
		}
		cleared = deleted
	} else {
		count, err := h.sensors.Count(ctx)
		if err != nil {
			handleError(c, err)
			return
		}
		if count > 0 {
			response.Success(c, gin.H{"inserted": 0, "skipped": true, "existing": count})
			return
		}
	}

	readings := make([]model.SensorReading, 0, len(rows))
	for _, row := range rows {
		reading, err := row.toModel()
		if err != nil {
			response.Error(c, errcode.ErrInternal, "sample data corrupt")
			return
		}
		readings = append(readings, *reading)
	}
	inserted, err := h.sensors.BulkInsert(ctx, readings)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"inserted": inserted, "cleared": cleared})
}
