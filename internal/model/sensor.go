package model

import "time"

type SensorReading struct {
	ID                       string    `json:"id"`
	AssetID                  *string   `json:"asset_id"`
	SampledAt                time.Time `json:"sampled_at"`
	SensorID                 *string   `json:"sensor_id"`
	AccelPeakX               *float64  `json:"accel_peak_x"`
	AccelPeakY               *float64  `json:"accel_peak_y"`
	AccelPeakZ               *float64  `json:"accel_peak_z"`
	Temperature              *float64  `json:"temperature"`
	TemperatureAccelerometer *float64  `json:"temperature_accelerometer"`
	GatewaySignal            *int64    `json:"gateway_signal"`
	CreatedAt                time.Time `json:"created_at"`
}
