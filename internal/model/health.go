package model

import "time"

const (
	HealthStatusHealthy  = "healthy"
	HealthStatusWarning  = "warning"
	HealthStatusCritical = "critical"
	HealthStatusNoData   = "no_data"
)

// HealthCheck is the evaluation of one metric of one reading.
type HealthCheck struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
}

// HealthReport summarizes the latest reading of one sensor. Status is the
// worst status among Checks; Issues repeats the non-healthy messages.
type HealthReport struct {
	SensorID        string        `json:"sensor_id"`
	AssetID         string        `json:"asset_id,omitempty"`
	Status          string        `json:"status"`
	SampledAt       *time.Time    `json:"sampled_at,omitempty"`
	Checks          []HealthCheck `json:"checks"`
	Issues          []string      `json:"issues,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// HealthSummary aggregates per-sensor statuses across the fleet.
type HealthSummary struct {
	Sensors  int `json:"sensors"`
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	NoData   int `json:"no_data"`
}
