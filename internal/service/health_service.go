package service

import (
	"context"
	"fmt"
	"math"

	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/repo"
)

// Threshold pairs: values past critical fail the check, values past warn
// only flag it.
const (
	signalCriticalDBM = -85
	signalWarnDBM     = -75

	accelCriticalG = 16.0
	accelWarnG     = 12.0

	tempCriticalC = 120.0
	tempWarnC     = 90.0

	accelTempCriticalC = 90.0
	accelTempWarnC     = 70.0
)

var metricRecommendations = map[string]string{
	"gateway_signal":            "Check gateway placement and antenna connection.",
	"accel_peak":                "Inspect mounting and bearings for the vibration source.",
	"temperature":               "Verify cooling and reduce load until temperature normalizes.",
	"accelerometer_temperature": "Check sensor mounting surface temperature and shielding.",
}

// HealthService evaluates the most recent reading of each sensor against
// fixed operating thresholds.
type HealthService struct {
	sensors *repo.SensorRepo
}

func NewHealthService(sensors *repo.SensorRepo) *HealthService {
	return &HealthService{sensors: sensors}
}

// CheckSensor evaluates the latest reading of one sensor.
func (s *HealthService) CheckSensor(ctx context.Context, sensorID string) (*model.HealthReport, error) {
	reading, err := s.sensors.LatestBySensor(ctx, sensorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return &model.HealthReport{SensorID: sensorID, Status: model.HealthStatusNoData}, nil
		}
		return nil, err
	}
	return evaluate(reading), nil
}

// CheckAll evaluates every known sensor.
func (s *HealthService) CheckAll(ctx context.Context) ([]model.HealthReport, error) {
	ids, err := s.sensors.DistinctSensorIDs(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]model.HealthReport, 0, len(ids))
	for _, id := range ids {
		report, err := s.CheckSensor(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// Summary counts sensors per status.
func (s *HealthService) Summary(ctx context.Context) (*model.HealthSummary, error) {
	reports, err := s.CheckAll(ctx)
	if err != nil {
		return nil, err
	}
	summary := &model.HealthSummary{Sensors: len(reports)}
	for _, report := range reports {
		switch report.Status {
		case model.HealthStatusHealthy:
			summary.Healthy++
		case model.HealthStatusWarning:
			summary.Warning++
		case model.HealthStatusCritical:
			summary.Critical++
		default:
			summary.NoData++
		}
	}
	return summary, nil
}

func evaluate(reading *model.SensorReading) *model.HealthReport {
	report := &model.HealthReport{
		SensorID: derefStr(reading.SensorID),
		AssetID:  derefStr(reading.AssetID),
		Status:   model.HealthStatusHealthy,
	}
	sampled := reading.SampledAt
	report.SampledAt = &sampled

	if reading.GatewaySignal != nil {
		signal := float64(*reading.GatewaySignal)
		report.Checks = append(report.Checks, gradeLow("gateway_signal", signal, signalWarnDBM, signalCriticalDBM,
			"signal %.0f dBm is below %.0f dBm"))
	}
	if peak, ok := accelPeak(reading); ok {
		report.Checks = append(report.Checks, gradeHigh("accel_peak", peak, accelWarnG, accelCriticalG,
			"peak acceleration %.1f G exceeds %.1f G"))
	}
	if reading.Temperature != nil {
		report.Checks = append(report.Checks, gradeHigh("temperature", *reading.Temperature, tempWarnC, tempCriticalC,
			"temperature %.1f C exceeds %.1f C"))
	}
	if reading.TemperatureAccelerometer != nil {
		report.Checks = append(report.Checks, gradeHigh("accelerometer_temperature", *reading.TemperatureAccelerometer, accelTempWarnC, accelTempCriticalC,
			"accelerometer temperature %.1f C exceeds %.1f C"))
	}

	for _, check := range report.Checks {
		if check.Status == model.HealthStatusHealthy {
			continue
		}
		if worse(check.Status, report.Status) {
			report.Status = check.Status
		}
		report.Issues = append(report.Issues, check.Message)
		if rec, ok := metricRecommendations[check.Metric]; ok {
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	return report
}

// accelPeak is the largest absolute value across the three axes.
func accelPeak(reading *model.SensorReading) (float64, bool) {
	peak := 0.0
	found := false
	for _, axis := range []*float64{reading.AccelPeakX, reading.AccelPeakY, reading.AccelPeakZ} {
		if axis == nil {
			continue
		}
		found = true
		if v := math.Abs(*axis); v > peak {
			peak = v
		}
	}
	return peak, found
}

func gradeHigh(metric string, value, warn, critical float64, format string) model.HealthCheck {
	check := model.HealthCheck{Metric: metric, Value: value, Status: model.HealthStatusHealthy}
	switch {
	case value > critical:
		check.Status = model.HealthStatusCritical
		check.Message = fmt.Sprintf(format, value, critical)
	case value > warn:
		check.Status = model.HealthStatusWarning
		check.Message = fmt.Sprintf(format, value, warn)
	}
	return check
}

func gradeLow(metric string, value, warn, critical float64, format string) model.HealthCheck {
	check := model.HealthCheck{Metric: metric, Value: value, Status: model.HealthStatusHealthy}
	switch {
	case value < critical:
		check.Status = model.HealthStatusCritical
		check.Message = fmt.Sprintf(format, value, critical)
	case value < warn:
		check.Status = model.HealthStatusWarning
		check.Message = fmt.Sprintf(format, value, warn)
	}
	return check
}

func worse(a, b string) bool {
	rank := map[string]int{
		model.HealthStatusHealthy:  0,
		model.HealthStatusNoData:   1,
		model.HealthStatusWarning:  2,
		model.HealthStatusCritical: 3,
	}
	return rank[a] > rank[b]
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
