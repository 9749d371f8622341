// Package report renders stored availability records as PNG charts and a
// plain-text summary.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

// ErrNoRecords is returned when the filter matches nothing to report on
var ErrNoRecords = errors.New("no availability records to report")

// Generator creates static images and reports from stored records
type Generator struct {
	reader models.RecordReader
	log    *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a new report generator
func NewGenerator(reader models.RecordReader, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{reader: reader, log: log.Named("report"), now: time.Now}
}

// GenerateReport writes charts and summary.txt into a new timestamped
// directory below outputDir and returns that directory
func (g *Generator) GenerateReport(ctx context.Context, outputDir string, f models.RecordFilter) (string, error) {
	records, err := g.reader.Records(ctx, f)
	if err != nil {
		return "", fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	summaries, err := g.reader.GroupSummaries(ctx, f)
	if err != nil {
		return "", fmt.Errorf("failed to load group summaries: %w", err)
	}

	timestamp := g.now().Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("availability_report_%s", timestamp)
	if f.Group != "" {
		name = fmt.Sprintf("availability_report_%s_%s", sanitizeFilename(f.Group), timestamp)
	}
	reportDir := filepath.Join(outputDir, name)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := g.generateAvailabilityChart(reportDir, summaries); err != nil {
		g.log.Error("Failed to generate availability chart", zap.Error(err))
	}
	if err := g.generateLatencyChart(reportDir, records); err != nil {
		g.log.Error("Failed to generate latency chart", zap.Error(err))
	}
	if err := g.generateSamplesChart(reportDir, summaries); err != nil {
		g.log.Error("Failed to generate samples chart", zap.Error(err))
	}
	if err := g.generateTextReport(reportDir, records, summaries); err != nil {
		return reportDir, fmt.Errorf("failed to generate text report: %w", err)
	}

	g.log.Info("Report generated", zap.String("dir", reportDir), zap.Int("records", len(records)))
	return reportDir, nil
}
