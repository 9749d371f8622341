package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

const recordColumns = `run_id, group_name, device, sensor, sensor_id, availability_percent, avg_latency_ms,
        up_samples, down_samples, omitted_samples, total_samples, interval_seconds,
        window_start, window_end, created_at`

// Insert stores rec. A row for the same sensor and window is reported as a
// duplicate and left untouched.
func (db *DB) Insert(ctx context.Context, rec models.AvailabilityRecord) (models.InsertOutcome, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := db.dialect.Rebind(`
        INSERT INTO availability (` + recordColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (sensor_id, window_start, window_end) DO NOTHING
    `)
	res, err := db.ExecContext(ctx, query,
		rec.RunID,
		rec.Group,
		rec.Device,
		rec.Sensor,
		rec.SensorID,
		rec.Availability,
		rec.AvgLatencyMs,
		rec.UpSamples,
		rec.DownSamples,
		rec.OmittedSamples,
		rec.TotalSamples,
		rec.IntervalSeconds,
		rec.WindowStart,
		rec.WindowEnd,
		rec.CreatedAt.UTC().Format(models.RecordLayout),
	)
	if err != nil {
		return db.outcome(models.Failed), fmt.Errorf("insert sensor %d: %w", rec.SensorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.outcome(models.Failed), fmt.Errorf("insert sensor %d: %w", rec.SensorID, err)
	}
	if n == 0 {
		db.log.Debug("Record already stored",
			zap.Int64("sensor_id", rec.SensorID),
			zap.String("window_start", rec.WindowStart),
			zap.String("window_end", rec.WindowEnd))
		return db.outcome(models.Duplicate), nil
	}
	return db.outcome(models.Inserted), nil
}

func (db *DB) outcome(o models.InsertOutcome) models.InsertOutcome {
	db.metrics.Records.WithLabelValues(o.String()).Inc()
	return o
}

// HasOverlap reports whether a stored window of the sensor intersects w
func (db *DB) HasOverlap(ctx context.Context, sensorID int64, w models.Window) (bool, error) {
	query := db.dialect.Rebind(`
        SELECT COUNT(*) FROM availability
        WHERE sensor_id = ? AND window_start <= ? AND window_end >= ?
    `)
	var n int
	if err := db.QueryRowContext(ctx, query, sensorID, w.EndString(), w.StartString()).Scan(&n); err != nil {
		return false, fmt.Errorf("overlap check for sensor %d: %w", sensorID, err)
	}
	return n > 0, nil
}

func (db *DB) where(f models.RecordFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.SensorID > 0 {
		clauses = append(clauses, "sensor_id = ?")
		args = append(args, f.SensorID)
	}
	if f.Group != "" {
		clauses = append(clauses, "group_name = ?")
		args = append(args, f.Group)
	}
	if f.From != "" {
		clauses = append(clauses, "window_start >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		clauses = append(clauses, "window_end <= ?")
		args = append(args, f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Records returns stored records matching f, oldest window first
func (db *DB) Records(ctx context.Context, f models.RecordFilter) ([]models.AvailabilityRecord, error) {
	where, args := db.where(f)
	query := `SELECT ` + recordColumns + ` FROM availability` + where +
		` ORDER BY window_start, group_name, device, sensor`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.AvailabilityRecord
	for rows.Next() {
		var (
			r         models.AvailabilityRecord
			createdAt string
		)
		err := rows.Scan(&r.RunID, &r.Group, &r.Device, &r.Sensor, &r.SensorID,
			&r.Availability, &r.AvgLatencyMs,
			&r.UpSamples, &r.DownSamples, &r.OmittedSamples, &r.TotalSamples, &r.IntervalSeconds,
			&r.WindowStart, &r.WindowEnd, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if t, err := time.Parse(models.RecordLayout, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GroupSummaries aggregates the records matching f per group
func (db *DB) GroupSummaries(ctx context.Context, f models.RecordFilter) ([]models.GroupSummary, error) {
	where, args := db.where(f)
	query := `
        SELECT
            group_name,
            COUNT(DISTINCT sensor_id) as sensors,
            AVG(availability_percent) as avg_availability,
            MIN(availability_percent) as min_availability,
            SUM(up_samples),
            SUM(down_samples),
            SUM(omitted_samples)
        FROM availability` + where + `
        GROUP BY group_name
        ORDER BY group_name
    `

	rows, err := db.QueryContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query group summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.GroupSummary
	for rows.Next() {
		var s models.GroupSummary
		err := rows.Scan(&s.Group, &s.Sensors, &s.AvgAvailability, &s.MinAvailability,
			&s.UpSamples, &s.DownSamples, &s.OmittedSamples)
		if err != nil {
			return nil, fmt.Errorf("scan group summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
