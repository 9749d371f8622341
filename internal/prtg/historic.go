package prtg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/guregu/null/v5"
	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

type histEntry struct {
	Datetime json.RawMessage `json:"datetime"`
	Coverage json.RawMessage `json:"coverage_raw"`
	Value    json.RawMessage `json:"value"`
}

type histValue struct {
	Channel  string          `json:"channel"`
	ValueRaw json.RawMessage `json:"value_raw"`
}

// HistoricData fetches the averaged history of one sensor over w
func (c *Client) HistoricData(ctx context.Context, sensorID int64, w models.Window, avgSeconds int) (models.HistoricData, error) {
	params := url.Values{
		"id":    {strconv.FormatInt(sensorID, 10)},
		"avg":   {strconv.Itoa(avgSeconds)},
		"sdate": {w.QueryStart()},
		"edate": {w.QueryEnd()},
	}
	c.log.Debug("Querying history",
		zap.Int64("sensor_id", sensorID),
		zap.String("sdate", w.QueryStart()),
		zap.String("edate", w.QueryEnd()))

	body, err := c.get(ctx, "historicdata.json", params, c.historicTimeout)
	if err != nil {
		return models.HistoricData{}, fmt.Errorf("sensor %d: %w", sensorID, err)
	}
	return decodeHistoric(sensorID, body)
}

func decodeHistoric(sensorID int64, body []byte) (models.HistoricData, error) {
	var resp struct {
		Histdata []histEntry `json:"histdata"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.HistoricData{}, fmt.Errorf("sensor %d: decode historic data: %w", sensorID, err)
	}

	samples := make([]models.HistoricalSample, 0, len(resp.Histdata))
	for _, e := range resp.Histdata {
		tokens, present := channelValues(e.Value)
		samples = append(samples, models.HistoricalSample{
			Timestamp: datetime(e.Datetime),
			Coverage:  coverage(e.Coverage),
			RawValues: tokens,
			HasValues: present,
		})
	}
	return models.HistoricData{SensorID: sensorID, Samples: samples, Raw: string(body)}, nil
}

// channelValues returns the value_raw tokens of a per-sample channel array.
// present is false only when the bucket has no value field; a field that is
// empty or not an array is present with no tokens.
func channelValues(raw json.RawMessage) (tokens []string, present bool) {
	if isAbsent(raw) {
		return nil, false
	}
	var vals []histValue
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, true
	}
	for _, v := range vals {
		if len(v.ValueRaw) > 0 {
			tokens = append(tokens, string(v.ValueRaw))
		}
	}
	return tokens, true
}

// coverage accepts coverage_raw as an integer, an integral float or a numeric
// string. Anything else is invalid so the sample is omitted.
func coverage(raw json.RawMessage) null.Int {
	if isAbsent(raw) {
		return null.Int{}
	}
	text := string(raw)
	var s string
	if json.Unmarshal(raw, &s) == nil {
		text = s
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return null.Int{}
	}
	return null.IntFrom(int64(f))
}

// datetime returns the bucket label, or "" when it is not a JSON string
func datetime(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
