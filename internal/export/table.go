// Package export writes listings and availability records as CSV or XLSX.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/guregu/null/v5"

	"prtg-extract/internal/models"
)

// Table is a header plus rows of cell values. Cells are strings, integers,
// floats or nil for an empty cell.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// AvailabilityTable lays out one row per record
func AvailabilityTable(records []models.AvailabilityRecord) Table {
	t := Table{
		Name: "Availability",
		Header: []string{
			"Group", "Device", "Sensor", "SensorID",
			"Availability (%)", "Avg Latency", "Uptime",
			"Up Samples", "Down Samples", "Omitted Samples", "Total Samples",
			"Window Start", "Window End", "Run ID",
		},
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{
			r.Group, r.Device, r.Sensor, r.SensorID,
			floatCell(r.Availability), FormatLatency(r.AvgLatencyMs), FormatUptime(r.UpDuration()),
			r.UpSamples, r.DownSamples, r.OmittedSamples, r.TotalSamples,
			r.WindowStart, r.WindowEnd, r.RunID,
		})
	}
	return t
}

func DevicesTable(devices []models.Device) Table {
	t := Table{
		Name:   "Devices",
		Header: []string{"objid", "probe", "group", "device", "host", "status", "message", "sensorcount", "downsens"},
	}
	for _, d := range devices {
		t.Rows = append(t.Rows, []any{d.ObjID, d.Probe, d.Group, d.Device, d.Host, d.Status, d.Message, d.SensorCount, d.DownSensors})
	}
	return t
}

func SensorsTable(sensors []models.Sensor) Table {
	t := Table{
		Name:   "Sensors",
		Header: []string{"objid", "group", "device", "sensor", "status", "message", "lastvalue", "host"},
	}
	for _, s := range sensors {
		t.Rows = append(t.Rows, []any{s.ObjID, s.Group, s.Device, s.Sensor, s.Status, s.Message, s.LastValue, s.Host})
	}
	return t
}

func ChannelsTable(rows []models.ChannelRow) Table {
	t := Table{
		Name:   "Channels",
		Header: []string{"Group", "Device", "Sensor", "Host", "SensorID", "Channel", "LastValue", "Unit"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Group, r.Device, r.Sensor, r.Host, r.SensorID, r.Channel, r.LastValue, r.Unit})
	}
	return t
}

// FormatUptime renders d as "N days, H hours, M minutes"
func FormatUptime(d time.Duration) string {
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%d days, %d hours, %d minutes", minutes/(24*60), minutes/60%24, minutes%60)
}

// FormatLatency renders a latency as "X ms", or an empty string when unknown
func FormatLatency(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64) + " ms"
}

func floatCell(v null.Float) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}
