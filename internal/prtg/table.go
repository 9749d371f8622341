package prtg

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

const (
	deviceColumns  = "objid,probe,group,device,host,status,message,sensorcount,downsens"
	sensorColumns  = "objid,group,device,sensor,status,message,lastvalue,host"
	channelColumns = "name,lastvalue,unit"
)

// paginate walks table.json pages until PRTG stops returning new objects.
// PRTG repeats the last page instead of returning an empty one, so a page
// with no unseen ids, or the same ids as the previous page, also ends it.
func paginate[T any](ctx context.Context, size int, fetch func(ctx context.Context, start int) ([]T, error), id func(T) int64) ([]T, error) {
	var (
		all  []T
		seen = make(map[int64]struct{})
		prev map[int64]struct{}
	)
	for start := 0; ; start += size {
		batch, err := fetch(ctx, start)
		if err != nil {
			return all, err
		}
		if len(batch) == 0 {
			return all, nil
		}

		ids := make(map[int64]struct{}, len(batch))
		for _, item := range batch {
			ids[id(item)] = struct{}{}
		}
		if maps.Equal(ids, prev) {
			return all, nil
		}

		added := 0
		for _, item := range batch {
			key := id(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, item)
			added++
		}
		if added == 0 || len(batch) < size {
			return all, nil
		}
		prev = ids
	}
}

func decodeTable[T any](body []byte, key string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s table: %w", key, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", key, err)
	}
	return items, nil
}

func (c *Client) tablePage(ctx context.Context, content, columns string, extra url.Values, start int) ([]byte, error) {
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("content", content)
	params.Set("output", "json")
	params.Set("columns", columns)
	params.Set("count", strconv.Itoa(c.pageSize))
	params.Set("start", strconv.Itoa(start))
	return c.get(ctx, "table.json", params, c.tableTimeout)
}

func listTable[T any](ctx context.Context, c *Client, content, columns string, extra url.Values, id func(T) int64) ([]T, error) {
	return paginate(ctx, c.pageSize, func(ctx context.Context, start int) ([]T, error) {
		body, err := c.tablePage(ctx, content, columns, extra, start)
		if err != nil {
			return nil, err
		}
		items, err := decodeTable[T](body, content)
		if err != nil {
			return nil, err
		}
		c.log.Debug("Fetched page", zap.String("content", content), zap.Int("start", start), zap.Int("rows", len(items)))
		return items, nil
	}, id)
}

// Devices lists every device visible to the user
func (c *Client) Devices(ctx context.Context) ([]models.Device, error) {
	return listTable(ctx, c, "devices", deviceColumns, nil, func(d models.Device) int64 { return d.ObjID })
}

// Sensors lists all sensors, or those of one device when deviceID > 0
func (c *Client) Sensors(ctx context.Context, deviceID int64) ([]models.Sensor, error) {
	extra := url.Values{}
	if deviceID > 0 {
		extra.Set("filter_parentid", strconv.FormatInt(deviceID, 10))
	}
	return listTable(ctx, c, "sensors", sensorColumns, extra, func(s models.Sensor) int64 { return s.ObjID })
}

// SensorsByGroup lists the sensors below a group whose name contains
// nameFilter, case-insensitively. An empty filter keeps every sensor.
func (c *Client) SensorsByGroup(ctx context.Context, groupID int64, nameFilter string) ([]models.Sensor, error) {
	extra := url.Values{"id": {strconv.FormatInt(groupID, 10)}}
	sensors, err := listTable(ctx, c, "sensors", sensorColumns, extra, func(s models.Sensor) int64 { return s.ObjID })
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", groupID, err)
	}
	if nameFilter == "" {
		return sensors, nil
	}
	needle := strings.ToLower(nameFilter)
	filtered := sensors[:0]
	for _, s := range sensors {
		if strings.Contains(strings.ToLower(s.Sensor), needle) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Channels lists the channels of one sensor
func (c *Client) Channels(ctx context.Context, sensorID int64) ([]models.Channel, error) {
	params := url.Values{
		"content": {"channels"},
		"output":  {"json"},
		"columns": {channelColumns},
		"id":      {strconv.FormatInt(sensorID, 10)},
	}
	body, err := c.get(ctx, "table.json", params, c.tableTimeout)
	if err != nil {
		return nil, err
	}
	return decodeTable[models.Channel](body, "channels")
}

// CheckConnection issues the smallest possible table query to verify the URL
// and credentials before a long run
func (c *Client) CheckConnection(ctx context.Context) error {
	params := url.Values{
		"content": {"sensors"},
		"output":  {"json"},
		"columns": {"objid"},
		"count":   {"1"},
	}
	body, err := c.get(ctx, "table.json", params, c.tableTimeout)
	if err != nil {
		return err
	}
	if _, err := decodeTable[models.Sensor](body, "sensors"); err != nil {
		return err
	}
	return nil
}
