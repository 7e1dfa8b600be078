package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/repo"
	"github.com/senseops/diagd/test/testutil"
)

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func i64Ptr(v int64) *int64 { return &v }

func newReading(sensorID string, sampledAt time.Time, temp float64) model.SensorReading {
	return model.SensorReading{
		AssetID:       strPtr("asset-1"),
		SensorID:      strPtr(sensorID),
		SampledAt:     sampledAt,
		AccelPeakX:    f64Ptr(1.5),
		AccelPeakY:    f64Ptr(2.5),
		AccelPeakZ:    f64Ptr(0.5),
		Temperature:   f64Ptr(temp),
		GatewaySignal: i64Ptr(-70),
	}
}

func TestSensorRepoInsertAndSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	sensors := repo.NewSensorRepo(db)
	ctx := context.Background()
	_, err := sensors.DeleteAll(ctx)
	require.NoError(t, err)

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	first := newReading("vib-001", base, 40)
	require.NoError(t, sensors.Insert(ctx, &first))
	require.NotEmpty(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	second := newReading("vib-001", base.Add(time.Hour), 45)
	third := newReading("vib-002", base.Add(2*time.Hour), 50)
	inserted, err := sensors.BulkInsert(ctx, []model.SensorReading{second, third})
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	count, err := sensors.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	bySensor, err := sensors.ListBySensor(ctx, "vib-001")
	require.NoError(t, err)
	require.Len(t, bySensor, 2)
	// Descending by sampled_at.
	require.True(t, bySensor[0].SampledAt.After(bySensor[1].SampledAt))

	start := base.Add(30 * time.Minute)
	windowed, err := sensors.Search(ctx, repo.SensorFilter{
		SensorID:  "vib-001",
		StartDate: &start,
		Limit:     10,
		OrderBy:   "sampled_at",
		OrderDesc: true,
	})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	require.Equal(t, base.Add(time.Hour).Unix(), windowed[0].SampledAt.Unix())

	ids, err := sensors.DistinctSensorIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"vib-001", "vib-002"}, ids)

	latest, err := sensors.LatestBySensor(ctx, "vib-001")
	require.NoError(t, err)
	require.Equal(t, base.Add(time.Hour).Unix(), latest.SampledAt.Unix())

	_, err = sensors.LatestBySensor(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestSensorRepoUpdateSampledAtAndSummary(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	sensors := repo.NewSensorRepo(db)
	ctx := context.Background()
	_, err := sensors.DeleteAll(ctx)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	reading := newReading("temp-201", base, 80)
	require.NoError(t, sensors.Insert(ctx, &reading))

	corrected := base.Add(24 * time.Hour)
	require.NoError(t, sensors.UpdateSampledAt(ctx, reading.ID, corrected))
	require.ErrorIs(t, sensors.UpdateSampledAt(ctx, "00000000-0000-0000-0000-000000000000", corrected), appErr.ErrNotFound)

	latest, err := sensors.LatestBySensor(ctx, "temp-201")
	require.NoError(t, err)
	require.Equal(t, corrected.Unix(), latest.SampledAt.Unix())

	summary, err := sensors.Summary(ctx, "temp-201")
	require.NoError(t, err)
	require.EqualValues(t, 1, summary.TotalRecords)
	require.EqualValues(t, 1, summary.UniqueSensors)
	require.NotNil(t, summary.AvgTemperature)
	require.InDelta(t, 80, *summary.AvgTemperature, 0.001)

	deleted, err := sensors.DeleteAll(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}
