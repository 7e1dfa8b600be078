package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/senseops/diagd/internal/model"
)

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func i64Ptr(v int64) *int64 { return &v }

func baseReading() *model.SensorReading {
	return &model.SensorReading{
		ID:        "r1",
		SensorID:  strPtr("vib-001"),
		AssetID:   strPtr("pump-1"),
		SampledAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate_HealthyReading(t *testing.T) {
	reading := baseReading()
	reading.GatewaySignal = i64Ptr(-60)
	reading.AccelPeakX = f64Ptr(2.0)
	reading.Temperature = f64Ptr(45.0)
	reading.TemperatureAccelerometer = f64Ptr(40.0)

	report := evaluate(reading)
	require.Equal(t, model.HealthStatusHealthy, report.Status)
	require.Empty(t, report.Issues)
	require.Len(t, report.Checks, 4)
}

func TestEvaluate_SignalThresholds(t *testing.T) {
	cases := []struct {
		signal int64
		want   string
	}{
		{-60, model.HealthStatusHealthy},
		{-75, model.HealthStatusHealthy},
		{-80, model.HealthStatusWarning},
		{-85, model.HealthStatusWarning},
		{-90, model.HealthStatusCritical},
	}
	for _, tc := range cases {
		reading := baseReading()
		reading.GatewaySignal = i64Ptr(tc.signal)
		report := evaluate(reading)
		require.Equal(t, tc.want, report.Status, "signal %d", tc.signal)
	}
}

func TestEvaluate_AccelPeakUsesWorstAxis(t *testing.T) {
	reading := baseReading()
	reading.AccelPeakX = f64Ptr(1.0)
	reading.AccelPeakY = f64Ptr(-17.5)
	reading.AccelPeakZ = f64Ptr(3.0)

	report := evaluate(reading)
	require.Equal(t, model.HealthStatusCritical, report.Status)
	require.NotEmpty(t, report.Issues)
	require.NotEmpty(t, report.Recommendations)
}

func TestEvaluate_TemperatureThresholds(t *testing.T) {
	cases := []struct {
		temp float64
		want string
	}{
		{60, model.HealthStatusHealthy},
		{95, model.HealthStatusWarning},
		{125, model.HealthStatusCritical},
	}
	for _, tc := range cases {
		reading := baseReading()
		reading.Temperature = f64Ptr(tc.temp)
		report := evaluate(reading)
		require.Equal(t, tc.want, report.Status, "temperature %.0f", tc.temp)
	}
}

func TestEvaluate_AccelerometerTemperatureThresholds(t *testing.T) {
	reading := baseReading()
	reading.TemperatureAccelerometer = f64Ptr(75.0)
	require.Equal(t, model.HealthStatusWarning, evaluate(reading).Status)

	reading.TemperatureAccelerometer = f64Ptr(92.0)
	require.Equal(t, model.HealthStatusCritical, evaluate(reading).Status)
}

func TestEvaluate_WorstCheckWins(t *testing.T) {
	reading := baseReading()
	reading.GatewaySignal = i64Ptr(-78) // warning
	reading.Temperature = f64Ptr(130.0) // critical
	reading.AccelPeakX = f64Ptr(2.0)    // healthy

	report := evaluate(reading)
	require.Equal(t, model.HealthStatusCritical, report.Status)
	require.Len(t, report.Issues, 2)
}

func TestEvaluate_MissingMetricsProduceNoChecks(t *testing.T) {
	report := evaluate(baseReading())
	require.Equal(t, model.HealthStatusHealthy, report.Status)
	require.Empty(t, report.Checks)
}
