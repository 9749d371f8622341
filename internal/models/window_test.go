package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "query layout used as-is",
			start:     "2025-03-01-00-00-00",
			end:       "2025-03-31-12-30-00",
			wantStart: "2025-03-01 00:00:00",
			wantEnd:   "2025-03-31 12:30:00",
		},
		{
			name:      "record layout used as-is",
			start:     "2025-03-01 06:00:00",
			end:       "2025-03-02 06:00:00",
			wantStart: "2025-03-01 06:00:00",
			wantEnd:   "2025-03-02 06:00:00",
		},
		{
			name:      "calendar dates expand to whole days",
			start:     "2025-03-01",
			end:       "2025-03-31",
			wantStart: "2025-03-01 00:00:00",
			wantEnd:   "2025-03-31 23:59:59",
		},
		{
			name:      "slash dates",
			start:     "2025/03/01",
			end:       "2025/03/01",
			wantStart: "2025-03-01 00:00:00",
			wantEnd:   "2025-03-01 23:59:59",
		},
		{
			name:      "surrounding whitespace",
			start:     " 2025-03-01 ",
			end:       "2025-03-02",
			wantStart: "2025-03-01 00:00:00",
			wantEnd:   "2025-03-02 23:59:59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.StartString())
			assert.Equal(t, tt.wantEnd, w.EndString())
		})
	}
}

func TestParseWindowQueryStrings(t *testing.T) {
	w, err := ParseWindow("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01-00-00-00", w.QueryStart())
	assert.Equal(t, "2025-03-31-23-59-59", w.QueryEnd())
}

func TestParseWindowErrors(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "garbage start", start: "yesterday", end: "2025-03-01"},
		{name: "garbage end", start: "2025-03-01", end: "03/31/2025"},
		{name: "empty", start: "", end: ""},
		{name: "end before start", start: "2025-03-02", end: "2025-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWindow(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestRecordUpDuration(t *testing.T) {
	r := AvailabilityRecord{UpSamples: 25, IntervalSeconds: 3600}
	assert.Equal(t, 25*time.Hour, r.UpDuration())
}

func TestInsertOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "duplicate", Duplicate.String())
	assert.Equal(t, "failed", Failed.String())
}
