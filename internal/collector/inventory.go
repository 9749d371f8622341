package collector

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"prtg-extract/internal/models"
)

// ChannelLister is the part of the PRTG client the channel inventory needs
type ChannelLister interface {
	Sensors(ctx context.Context, deviceID int64) ([]models.Sensor, error)
	Channels(ctx context.Context, sensorID int64) ([]models.Channel, error)
}

// Inventory flattens sensors and their channels into rows
type Inventory struct {
	lister  ChannelLister
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewInventory(lister ChannelLister, delay time.Duration, log *zap.Logger) *Inventory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inventory{lister: lister, limiter: newLimiter(delay), log: log.Named("inventory")}
}

// Channels lists the channels of every sensor of a device, or of every sensor
// when deviceID is 0. Sensors whose channels cannot be read are logged and
// left out. A listing that fails midway still yields what was collected.
func (inv *Inventory) Channels(ctx context.Context, deviceID int64) ([]models.ChannelRow, error) {
	sensors, err := inv.lister.Sensors(ctx, deviceID)
	if err != nil {
		if len(sensors) == 0 {
			return nil, err
		}
		inv.log.Warn("Sensor listing incomplete", zap.Int("sensors", len(sensors)), zap.Error(err))
	}

	var rows []models.ChannelRow
	for i, s := range sensors {
		if err := inv.limiter.Wait(ctx); err != nil {
			return rows, err
		}
		channels, err := inv.lister.Channels(ctx, s.ObjID)
		if err != nil {
			inv.log.Error("Failed to list channels", zap.Int64("sensor_id", s.ObjID), zap.Error(err))
			continue
		}
		for _, ch := range channels {
			rows = append(rows, models.ChannelRow{
				Group:     s.Group,
				Device:    s.Device,
				Sensor:    s.Sensor,
				Host:      s.Host,
				SensorID:  s.ObjID,
				Channel:   ch.Name,
				LastValue: ch.LastValue,
				Unit:      ch.Unit,
			})
		}
		inv.log.Debug("Sensor channels listed", zap.Int("done", i+1), zap.Int("total", len(sensors)))
	}
	return rows, nil
}
