// Package collector drives the availability run: it discovers sensors below
// PRTG groups, reconstructs the uptime of each one over a window and hands the
// records to a sink.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"prtg-extract/internal/config"
	"prtg-extract/internal/metrics"
	"prtg-extract/internal/models"
	"prtg-extract/internal/uptime"
)

// Status is what happened to one sensor during a run
type Status int

const (
	// StatusComputed means the record was built but no sink was configured
	StatusComputed Status = iota
	StatusInserted
	StatusDuplicate
	StatusFailed
	StatusFetchFailed
	// StatusSkipped means a stored window already overlaps the requested one
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusComputed:
		return "computed"
	case StatusInserted:
		return "inserted"
	case StatusDuplicate:
		return "duplicate"
	case StatusFailed:
		return "failed"
	case StatusFetchFailed:
		return "fetch_failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome for one sensor
type Result struct {
	Sensor models.Sensor
	Record models.AvailabilityRecord
	Status Status
	Err    error
}

// HasRecord reports whether a record was reconstructed for the sensor
func (r Result) HasRecord() bool {
	return r.Status != StatusFetchFailed && r.Status != StatusSkipped
}

// Summary counts results by status
type Summary struct {
	Sensors     int `json:"sensors"`
	Computed    int `json:"computed"`
	Inserted    int `json:"inserted"`
	Duplicates  int `json:"duplicates"`
	Failed      int `json:"failed"`
	FetchFailed int `json:"fetch_failed"`
	Skipped     int `json:"skipped"`
}

// Run is one availability run over a set of groups
type Run struct {
	ID      string
	Window  models.Window
	Results []Result
	Summary Summary
}

// Records returns every reconstructed record of the run, in sensor order
func (r Run) Records() []models.AvailabilityRecord {
	var records []models.AvailabilityRecord
	for _, res := range r.Results {
		if res.HasRecord() {
			records = append(records, res.Record)
		}
	}
	return records
}

// Collector coordinates fetching, reconstruction and persistence
type Collector struct {
	fetcher models.Fetcher
	sink    models.Sink
	recon   *uptime.Reconstructor
	mode    uptime.Mode
	cfg     config.CollectorConfig
	limiter *rate.Limiter
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Collector. sink may be nil, in which case records are only
// returned.
func New(cfg config.CollectorConfig, fetcher models.Fetcher, sink models.Sink, log *zap.Logger, m *metrics.Metrics) (*Collector, error) {
	mode, err := uptime.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	recon, err := uptime.New(uptime.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	return &Collector{
		fetcher: fetcher,
		sink:    sink,
		recon:   recon,
		mode:    mode,
		cfg:     cfg,
		limiter: newLimiter(cfg.RequestDelay),
		log:     log.Named("collector"),
		metrics: m,
		now:     time.Now,
	}, nil
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Sensors lists the sensors of every group that pass the name filter. A group
// that cannot be listed is logged and skipped; sensors reachable through more
// than one group are kept once.
func (c *Collector) Sensors(ctx context.Context, groupIDs []int64) []models.Sensor {
	var (
		sensors []models.Sensor
		seen    = make(map[int64]struct{})
	)
	for _, gid := range groupIDs {
		found, err := c.fetcher.SensorsByGroup(ctx, gid, c.cfg.SensorFilter)
		if err != nil {
			c.log.Error("Failed to list group sensors", zap.Int64("group_id", gid), zap.Error(err))
			continue
		}
		c.log.Info("Found sensors", zap.Int64("group_id", gid), zap.Int("count", len(found)))
		for _, s := range found {
			if _, dup := seen[s.ObjID]; dup {
				continue
			}
			seen[s.ObjID] = struct{}{}
			sensors = append(sensors, s)
		}
	}
	return sensors
}

// Run reconstructs availability for every sensor below groupIDs over w
func (c *Collector) Run(ctx context.Context, groupIDs []int64, w models.Window) (Run, error) {
	run := Run{ID: uuid.NewString(), Window: w}
	sensors := c.Sensors(ctx, groupIDs)
	c.log.Info("Starting availability run",
		zap.String("run_id", run.ID),
		zap.Int("sensors", len(sensors)),
		zap.String("window_start", w.StartString()),
		zap.String("window_end", w.EndString()),
		zap.Int("workers", c.cfg.Workers))

	run.Results = c.Process(ctx, run.ID, sensors, w)
	run.Summary = Summarize(run.Results)

	c.log.Info("Availability run finished",
		zap.String("run_id", run.ID),
		zap.Int("inserted", run.Summary.Inserted),
		zap.Int("duplicates", run.Summary.Duplicates),
		zap.Int("failed", run.Summary.Failed),
		zap.Int("fetch_failed", run.Summary.FetchFailed),
		zap.Int("skipped", run.Summary.Skipped))

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("run interrupted: %w", err)
	}
	return run, nil
}

// Process handles sensors with at most cfg.Workers in flight. Results keep the
// order of sensors regardless of completion order.
func (c *Collector) Process(ctx context.Context, runID string, sensors []models.Sensor, w models.Window) []Result {
	results := make([]Result, len(sensors))
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for i, s := range sensors {
		i, s := i, s
		g.Go(func() error {
			results[i] = c.processSensor(ctx, runID, s, w)
			return nil
		})
	}
	g.Wait()
	return results
}

func (c *Collector) processSensor(ctx context.Context, runID string, s models.Sensor, w models.Window) Result {
	log := c.log.With(
		zap.Int64("sensor_id", s.ObjID),
		zap.String("device", s.Device),
		zap.String("sensor", s.Sensor))
	c.metrics.SensorsSeen.Inc()

	if c.sink != nil && c.cfg.SkipOverlapping {
		overlap, err := c.sink.HasOverlap(ctx, s.ObjID, w)
		switch {
		case err != nil:
			log.Warn("Failed to check stored windows", zap.Error(err))
		case overlap:
			log.Info("Skipping sensor, window overlaps stored data")
			return Result{Sensor: s, Status: StatusSkipped}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{Sensor: s, Status: StatusFetchFailed, Err: err}
	}
	data, err := c.fetcher.HistoricData(ctx, s.ObjID, w, c.cfg.AverageInterval)
	if err != nil {
		log.Error("Failed to fetch historic data", zap.Error(err))
		return Result{Sensor: s, Status: StatusFetchFailed, Err: err}
	}

	res := c.recon.Reconstruct(data.Samples, uptime.SourceFor(c.mode, data))
	c.metrics.Samples.WithLabelValues(uptime.Up.String()).Add(float64(res.Counts.Up))
	c.metrics.Samples.WithLabelValues(uptime.Down.String()).Add(float64(res.Counts.Down))
	c.metrics.Samples.WithLabelValues(uptime.Omitted.String()).Add(float64(res.Counts.Omitted))

	rec := models.NewRecord(s, res, w, c.cfg.AverageInterval)
	rec.RunID = runID
	rec.CreatedAt = c.now()

	log.Info("Reconstructed availability",
		zap.Any("availability", res.Availability),
		zap.Any("avg_latency_ms", res.AvgLatencyMs),
		zap.Int("up", res.Counts.Up),
		zap.Int("down", res.Counts.Down),
		zap.Int("omitted", res.Counts.Omitted))

	if c.sink == nil {
		return Result{Sensor: s, Record: rec, Status: StatusComputed}
	}
	out, err := c.sink.Insert(ctx, rec)
	if err != nil {
		log.Error("Failed to store record", zap.Error(err))
		return Result{Sensor: s, Record: rec, Status: StatusFailed, Err: err}
	}
	if out == models.Duplicate {
		return Result{Sensor: s, Record: rec, Status: StatusDuplicate}
	}
	return Result{Sensor: s, Record: rec, Status: StatusInserted}
}

// Summarize counts results by status
func Summarize(results []Result) Summary {
	sum := Summary{Sensors: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusComputed:
			sum.Computed++
		case StatusInserted:
			sum.Inserted++
		case StatusDuplicate:
			sum.Duplicates++
		case StatusFailed:
			sum.Failed++
		case StatusFetchFailed:
			sum.FetchFailed++
		case StatusSkipped:
			sum.Skipped++
		}
	}
	return sum
}
