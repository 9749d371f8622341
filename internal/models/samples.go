package models

import "github.com/guregu/null/v5"

// HistoricalSample is one time bucket of a historicdata.json response
type HistoricalSample struct {
	Timestamp string   `json:"datetime"`
	Coverage  null.Int `json:"coverage_raw"`
	// RawValues holds the value_raw tokens of the bucket's channels when the
	// payload exposes them per sample. Nil when only the raw text has them.
	RawValues []string `json:"-"`
	// HasValues reports that the bucket carried a value field at all, even an
	// empty one
	HasValues bool `json:"-"`
}

// HistoricData is one decoded historic-data response together with the body
// it was decoded from
type HistoricData struct {
	SensorID int64
	Samples  []HistoricalSample
	Raw      string
}

// SampleCounts classifies every sample of a series exactly once
type SampleCounts struct {
	Total      int `json:"total"`
	Classified int `json:"classified"`
	Up         int `json:"up"`
	Down       int `json:"down"`
	Omitted    int `json:"omitted"`
}

// ReconstructionResult is the availability derived from one historical series
type ReconstructionResult struct {
	Availability null.Float   `json:"availability_percent"`
	AvgLatencyMs null.Float   `json:"avg_latency_ms"`
	Counts       SampleCounts `json:"sample_counts"`
}
