package models

import (
	"time"

	"github.com/guregu/null/v5"
)

// AvailabilityRecord is the summarized availability of one sensor over one window
type AvailabilityRecord struct {
	RunID           string     `json:"run_id"`
	Group           string     `json:"group"`
	Device          string     `json:"device"`
	Sensor          string     `json:"sensor"`
	SensorID        int64      `json:"sensor_id"`
	Availability    null.Float `json:"availability_percent"`
	AvgLatencyMs    null.Float `json:"avg_latency_ms"`
	UpSamples       int        `json:"up_samples"`
	DownSamples     int        `json:"down_samples"`
	OmittedSamples  int        `json:"omitted_samples"`
	TotalSamples    int        `json:"total_samples"`
	IntervalSeconds int        `json:"interval_seconds"`
	WindowStart     string     `json:"window_start"`
	WindowEnd       string     `json:"window_end"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewRecord builds the record for sensor s from a reconstruction result
func NewRecord(s Sensor, res ReconstructionResult, w Window, intervalSeconds int) AvailabilityRecord {
	return AvailabilityRecord{
		Group:           s.Group,
		Device:          s.Device,
		Sensor:          s.Sensor,
		SensorID:        s.ObjID,
		Availability:    res.Availability,
		AvgLatencyMs:    res.AvgLatencyMs,
		UpSamples:       res.Counts.Up,
		DownSamples:     res.Counts.Down,
		OmittedSamples:  res.Counts.Omitted,
		TotalSamples:    res.Counts.Total,
		IntervalSeconds: intervalSeconds,
		WindowStart:     w.StartString(),
		WindowEnd:       w.EndString(),
	}
}

// UpDuration is the observed up time: up samples times the averaging interval
func (r AvailabilityRecord) UpDuration() time.Duration {
	return time.Duration(r.UpSamples) * time.Duration(r.IntervalSeconds) * time.Second
}

// InsertOutcome reports what a sink did with one record
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	Duplicate
	Failed
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// RecordFilter narrows stored records. Zero fields match everything.
type RecordFilter struct {
	SensorID int64
	Group    string
	From     string
	To       string
	Limit    int
}

// GroupSummary aggregates stored records of one group
type GroupSummary struct {
	Group           string     `json:"group"`
	Sensors         int        `json:"sensors"`
	AvgAvailability null.Float `json:"avg_availability_percent"`
	MinAvailability null.Float `json:"min_availability_percent"`
	UpSamples       int        `json:"up_samples"`
	DownSamples     int        `json:"down_samples"`
	OmittedSamples  int        `json:"omitted_samples"`
}
