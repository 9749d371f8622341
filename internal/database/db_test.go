package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"prtg-extract/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))
	return db
}

func record(sensorID int64, group, start, end string, availability float64) models.AvailabilityRecord {
	return models.AvailabilityRecord{
		RunID:           "run-1",
		Group:           group,
		Device:          "gw",
		Sensor:          "Ping",
		SensorID:        sensorID,
		Availability:    null.FloatFrom(availability),
		AvgLatencyMs:    null.FloatFrom(12.5),
		UpSamples:       20,
		DownSamples:     4,
		OmittedSamples:  0,
		TotalSamples:    24,
		IntervalSeconds: 3600,
		WindowStart:     start,
		WindowEnd:       end,
	}
}

func TestInsertOutcomes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rec := record(1001, "Core", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 83.33)

	out, err := db.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.Inserted, out)

	// same sensor and window is a duplicate, not an error
	rec.Availability = null.FloatFrom(10)
	out, err = db.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.Duplicate, out)

	// different window inserts
	rec.WindowEnd = "2025-03-02 23:59:59"
	out, err = db.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.Inserted, out)

	records, err := db.Records(ctx, models.RecordFilter{SensorID: 1001})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 83.33, records[0].Availability.Float64)
}

func TestInsertNullAvailability(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rec := record(7, "Edge", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 0)
	rec.Availability = null.Float{}
	rec.AvgLatencyMs = null.Float{}

	out, err := db.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.Inserted, out)

	records, err := db.Records(ctx, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Availability.Valid)
	assert.False(t, records[0].AvgLatencyMs.Valid)
	assert.WithinDuration(t, time.Now().UTC(), records[0].CreatedAt, time.Minute)
}

func TestInsertFailsOnClosedDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	out, err := db.Insert(context.Background(), record(1, "Core", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 100))
	assert.Error(t, err)
	assert.Equal(t, models.Failed, out)
}

func TestHasOverlap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Insert(ctx, record(1001, "Core", "2025-03-10 00:00:00", "2025-03-20 23:59:59", 99))
	require.NoError(t, err)

	tests := []struct {
		name     string
		sensorID int64
		start    string
		end      string
		want     bool
	}{
		{name: "same window", sensorID: 1001, start: "2025-03-10", end: "2025-03-20", want: true},
		{name: "inside", sensorID: 1001, start: "2025-03-12", end: "2025-03-13", want: true},
		{name: "straddles start", sensorID: 1001, start: "2025-03-01", end: "2025-03-10", want: true},
		{name: "before", sensorID: 1001, start: "2025-03-01", end: "2025-03-09", want: false},
		{name: "after", sensorID: 1001, start: "2025-03-21", end: "2025-03-31", want: false},
		{name: "other sensor", sensorID: 1002, start: "2025-03-10", end: "2025-03-20", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := models.ParseWindow(tt.start, tt.end)
			require.NoError(t, err)
			got, err := db.HasOverlap(ctx, tt.sensorID, w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordsFilterAndSummaries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, rec := range []models.AvailabilityRecord{
		record(1, "Core", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 100),
		record(2, "Core", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 50),
		record(3, "Edge", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 75),
		record(1, "Core", "2025-03-02 00:00:00", "2025-03-02 23:59:59", 90),
	} {
		_, err := db.Insert(ctx, rec)
		require.NoError(t, err)
	}

	core, err := db.Records(ctx, models.RecordFilter{Group: "Core"})
	require.NoError(t, err)
	assert.Len(t, core, 3)

	firstDay, err := db.Records(ctx, models.RecordFilter{To: "2025-03-01 23:59:59"})
	require.NoError(t, err)
	assert.Len(t, firstDay, 3)

	limited, err := db.Records(ctx, models.RecordFilter{From: "2025-03-01 00:00:00", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	summaries, err := db.GroupSummaries(ctx, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Core", summaries[0].Group)
	assert.Equal(t, 2, summaries[0].Sensors)
	assert.InDelta(t, 80.0, summaries[0].AvgAvailability.Float64, 0.001)
	assert.Equal(t, 50.0, summaries[0].MinAvailability.Float64)
	assert.Equal(t, 60, summaries[0].UpSamples)
	assert.Equal(t, "Edge", summaries[1].Group)
	assert.Equal(t, 1, summaries[1].Sensors)
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := record(1, "Core", "2024-01-01 00:00:00", "2024-01-01 23:59:59", 100)
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := record(2, "Core", "2025-03-01 00:00:00", "2025-03-01 23:59:59", 100)
	for _, rec := range []models.AvailabilityRecord{old, fresh} {
		_, err := db.Insert(ctx, rec)
		require.NoError(t, err)
	}

	n, err := db.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	records, err := db.Records(ctx, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].SensorID)

	_, err = db.Prune(ctx, 0)
	assert.Error(t, err)
}

func TestPostgresRebind(t *testing.T) {
	d := postgresDialect{}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", d.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1", sqliteDialect{}.Rebind("SELECT 1"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x", nil, nil)
	assert.Error(t, err)
}
