package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/senseops/diagd/internal/model"
	"github.com/senseops/diagd/internal/pkg/dbutil"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
)

var sensorFields = []string{
	"id", "asset_id", "sampled_at", "sensor_id",
	"accel_peak_x", "accel_peak_y", "accel_peak_z",
	"temperature", "temperature_accelerometer", "gateway_signal", "created_at",
}

type SensorRepo struct {
	db *sql.DB
}

func NewSensorRepo(db *sql.DB) *SensorRepo {
	return &SensorRepo{db: db}
}

// SensorFilter narrows a reading search. Zero values mean "no filter".
type SensorFilter struct {
	SensorID  string
	AssetID   string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	OrderBy   string
	OrderDesc bool
}

func (r *SensorRepo) Insert(ctx context.Context, reading *model.SensorReading) error {
	const query = `
		INSERT INTO sensor_data (
			asset_id, sampled_at, sensor_id,
			accel_peak_x, accel_peak_y, accel_peak_z,
			temperature, temperature_accelerometer, gateway_signal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	row := r.db.QueryRowContext(ctx, query,
		reading.AssetID, reading.SampledAt, reading.SensorID,
		reading.AccelPeakX, reading.AccelPeakY, reading.AccelPeakZ,
		reading.Temperature, reading.TemperatureAccelerometer, reading.GatewaySignal,
	)
	return row.Scan(&reading.ID, &reading.CreatedAt)
}

func (r *SensorRepo) BulkInsert(ctx context.Context, readings []model.SensorReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}
	rows := make([]map[string]interface{}, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, map[string]interface{}{
			"asset_id":                  reading.AssetID,
			"sampled_at":                reading.SampledAt,
			"sensor_id":                 reading.SensorID,
			"accel_peak_x":              reading.AccelPeakX,
			"accel_peak_y":              reading.AccelPeakY,
			"accel_peak_z":              reading.AccelPeakZ,
			"temperature":               reading.Temperature,
			"temperature_accelerometer": reading.TemperatureAccelerometer,
			"gateway_signal":            reading.GatewaySignal,
		})
	}
	sqlStr, args, err := builder.BuildInsert("sensor_data", rows)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	inserted, _ := res.RowsAffected()
	return int(inserted), nil
}

func (r *SensorRepo) List(ctx context.Context) ([]model.SensorReading, error) {
	return r.Search(ctx, SensorFilter{OrderBy: "sampled_at", OrderDesc: true})
}

func (r *SensorRepo) ListBySensor(ctx context.Context, sensorID string) ([]model.SensorReading, error) {
	return r.Search(ctx, SensorFilter{SensorID: sensorID, OrderBy: "sampled_at", OrderDesc: true})
}

func (r *SensorRepo) Search(ctx context.Context, filter SensorFilter) ([]model.SensorReading, error) {
	where := map[string]interface{}{}
	if filter.SensorID != "" {
		where["sensor_id"] = filter.SensorID
	}
	if filter.AssetID != "" {
		where["asset_id"] = filter.AssetID
	}
	if filter.StartDate != nil {
		where["sampled_at >="] = *filter.StartDate
	}
	if filter.EndDate != nil {
		where["sampled_at <="] = *filter.EndDate
	}
	orderBy := filter.OrderBy
	switch orderBy {
	case "sampled_at", "created_at", "sensor_id", "asset_id", "temperature", "gateway_signal":
	default:
		orderBy = "sampled_at"
	}
	direction := "asc"
	if filter.OrderDesc {
		direction = "desc"
	}
	where["_orderby"] = orderBy + " " + direction
	if filter.Limit > 0 {
		where["_limit"] = []uint{uint(filter.Limit)}
	}
	sqlStr, args, err := builder.BuildSelect("sensor_data", where, sensorFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SensorReading
	for rows.Next() {
		reading, err := scanSensorReading(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, reading)
	}
	return results, rows.Err()
}

func (r *SensorRepo) LatestBySensor(ctx context.Context, sensorID string) (*model.SensorReading, error) {
	results, err := r.Search(ctx, SensorFilter{SensorID: sensorID, OrderBy: "sampled_at", OrderDesc: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &results[0], nil
}

func (r *SensorRepo) DistinctSensorIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT sensor_id FROM sensor_data WHERE sensor_id IS NOT NULL ORDER BY sensor_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SensorRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SensorRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sensor_data`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateSampledAt touches only the sampled_at column; agent-facing writes
// are restricted to it.
func (r *SensorRepo) UpdateSampledAt(ctx context.Context, id string, sampledAt time.Time) error {
	const query = `UPDATE sensor_data SET sampled_at = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, sampledAt, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

type SensorSummary struct {
	TotalRecords   int64      `json:"total_records"`
	UniqueSensors  int64      `json:"unique_sensors"`
	EarliestSample *time.Time `json:"earliest_sample"`
	LatestSample   *time.Time `json:"latest_sample"`
	AvgTemperature *float64   `json:"avg_temperature"`
	AvgAccelPeakX  *float64   `json:"avg_accel_peak_x"`
	AvgAccelPeakY  *float64   `json:"avg_accel_peak_y"`
	AvgAccelPeakZ  *float64   `json:"avg_accel_peak_z"`
	AvgSignal      *float64   `json:"avg_gateway_signal"`
}

func (r *SensorRepo) Summary(ctx context.Context, sensorID string) (*SensorSummary, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT sensor_id),
			MIN(sampled_at), MAX(sampled_at),
			AVG(temperature), AVG(accel_peak_x), AVG(accel_peak_y), AVG(accel_peak_z),
			AVG(gateway_signal)
		FROM sensor_data
	`
	var args []interface{}
	if sensorID != "" {
		query += ` WHERE sensor_id = $1`
		args = append(args, sensorID)
	}
	row := r.db.QueryRowContext(ctx, query, args...)
	var summary SensorSummary
	if err := row.Scan(
		&summary.TotalRecords, &summary.UniqueSensors,
		&summary.EarliestSample, &summary.LatestSample,
		&summary.AvgTemperature, &summary.AvgAccelPeakX, &summary.AvgAccelPeakY, &summary.AvgAccelPeakZ,
		&summary.AvgSignal,
	); err != nil {
		return nil, err
	}
	return &summary, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSensorReading(row rowScanner) (model.SensorReading, error) {
	var reading model.SensorReading
	err := row.Scan(
		&reading.ID, &reading.AssetID, &reading.SampledAt, &reading.SensorID,
		&reading.AccelPeakX, &reading.AccelPeakY, &reading.AccelPeakZ,
		&reading.Temperature, &reading.TemperatureAccelerometer, &reading.GatewaySignal,
		&reading.CreatedAt,
	)
	return reading, err
}
