package models

import (
	"context"
	"time"
)

// Fetcher retrieves what the availability collector needs from PRTG
type Fetcher interface {
	SensorsByGroup(ctx context.Context, groupID int64, nameFilter string) ([]Sensor, error)
	HistoricData(ctx context.Context, sensorID int64, w Window, avgSeconds int) (HistoricData, error)
}

// Sink persists availability records
type Sink interface {
	HasOverlap(ctx context.Context, sensorID int64, w Window) (bool, error)
	Insert(ctx context.Context, rec AvailabilityRecord) (InsertOutcome, error)
}

// RecordReader reads persisted availability records back
type RecordReader interface {
	Records(ctx context.Context, f RecordFilter) ([]AvailabilityRecord, error)
	GroupSummaries(ctx context.Context, f RecordFilter) ([]GroupSummary, error)
}

// Store is the full persistence surface
type Store interface {
	Sink
	RecordReader
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}
