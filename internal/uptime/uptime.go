// Package uptime derives availability and latency from a PRTG historical
// series. It does no I/O: the same inputs always give the same result.
package uptime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"

	"prtg-extract/internal/models"
)

const (
	// FullCoverage is coverage_raw of a fully observed bucket
	FullCoverage = 10000
	// DefaultUpperBound excludes sentinel readings such as timeouts
	DefaultUpperBound = 50000.0
	// DefaultMaxChannels is how many raw tokens are considered per sample
	DefaultMaxChannels = 4
)

var ErrInvalidOptions = errors.New("invalid reconstruction options")

// Options tune classification. The zero value is not valid; use DefaultOptions.
type Options struct {
	CoverageThreshold int64
	UpperBound        float64
	MaxChannels       int
}

func DefaultOptions() Options {
	return Options{
		CoverageThreshold: FullCoverage,
		UpperBound:        DefaultUpperBound,
		MaxChannels:       DefaultMaxChannels,
	}
}

// Validate checks that the options describe a usable classifier
func (o Options) Validate() error {
	if o.CoverageThreshold <= 0 || o.CoverageThreshold > FullCoverage {
		return fmt.Errorf("%w: coverage threshold %d outside (0, %d]", ErrInvalidOptions, o.CoverageThreshold, FullCoverage)
	}
	if !(o.UpperBound > 0) || math.IsInf(o.UpperBound, 0) {
		return fmt.Errorf("%w: upper bound %v must be a positive finite number", ErrInvalidOptions, o.UpperBound)
	}
	if o.MaxChannels <= 0 {
		return fmt.Errorf("%w: max channels %d must be positive", ErrInvalidOptions, o.MaxChannels)
	}
	return nil
}

// Class is the classification of one sample
type Class int

const (
	Omitted Class = iota
	Up
	Down
)

func (c Class) String() string {
	switch c {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "omitted"
	}
}

// Outcome is the classification of one sample plus its latency contribution
type Outcome struct {
	Class   Class
	Latency null.Float
}

// Reconstructor classifies samples with a fixed set of options
type Reconstructor struct {
	opts Options
}

// New returns a Reconstructor or ErrInvalidOptions
func New(opts Options) (*Reconstructor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Reconstructor{opts: opts}, nil
}

var defaultReconstructor = &Reconstructor{opts: DefaultOptions()}

// Reconstruct scans payload for the raw channel values of each sample and
// aggregates the result with default options.
func Reconstruct(samples []models.HistoricalSample, payload string) models.ReconstructionResult {
	return defaultReconstructor.Reconstruct(samples, TextScan{Payload: payload})
}

// Classify returns one outcome per sample, in order
func (r *Reconstructor) Classify(samples []models.HistoricalSample, src ValueSource) []Outcome {
	if src == nil {
		src = Structured{}
	}
	out := make([]Outcome, len(samples))
	for i, s := range samples {
		if !s.Coverage.Valid || s.Coverage.Int64 < r.opts.CoverageThreshold {
			continue
		}
		if s.Timestamp == "" {
			continue
		}
		tokens, ok := src.RawValues(samples, i)
		if !ok {
			continue
		}
		if len(tokens) > r.opts.MaxChannels {
			tokens = tokens[:r.opts.MaxChannels]
		}
		if v, ok := r.firstReading(tokens); ok {
			out[i] = Outcome{Class: Up, Latency: null.FloatFrom(v)}
		} else {
			out[i] = Outcome{Class: Down}
		}
	}
	return out
}

// Reconstruct aggregates Classify into availability, latency and counts
func (r *Reconstructor) Reconstruct(samples []models.HistoricalSample, src ValueSource) models.ReconstructionResult {
	var (
		res        models.ReconstructionResult
		latencySum float64
		latencyN   int
	)
	res.Counts.Total = len(samples)

	for _, o := range r.Classify(samples, src) {
		switch o.Class {
		case Up:
			res.Counts.Up++
			if o.Latency.Valid {
				latencySum += o.Latency.Float64
				latencyN++
			}
		case Down:
			res.Counts.Down++
		default:
			res.Counts.Omitted++
		}
	}
	res.Counts.Classified = res.Counts.Up + res.Counts.Down

	if res.Counts.Classified > 0 {
		score := float64(res.Counts.Up*100) / float64(res.Counts.Classified)
		res.Availability = null.FloatFrom(round2(score))
	}
	if latencyN > 0 {
		res.AvgLatencyMs = null.FloatFrom(round2(latencySum / float64(latencyN)))
	}
	return res
}

// firstReading returns the first token that parses to a value in [0, UpperBound)
func (r *Reconstructor) firstReading(tokens []string) (float64, bool) {
	for _, tok := range tokens {
		clean := strings.TrimSpace(strings.Trim(strings.TrimSpace(tok), `"`))
		if clean == "" {
			continue
		}
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v >= 0 && v < r.opts.UpperBound {
			return v, true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
