package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"prtg-extract/internal/models"
)

const maxLatencyBars = 30

var (
	chartPadding = chart.Style{
		Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
	}
	gridStyle = chart.Style{
		StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
		StrokeWidth: 1.0,
	}
	upColor      = drawing.Color{R: 46, G: 160, B: 67, A: 255}
	downColor    = drawing.Color{R: 207, G: 34, B: 46, A: 255}
	omittedColor = drawing.Color{R: 160, G: 160, B: 160, A: 255}
)

func (g *Generator) generateAvailabilityChart(outputDir string, summaries []models.GroupSummary) error {
	var bars []chart.Value
	for _, s := range summaries {
		if !s.AvgAvailability.Valid {
			continue
		}
		bars = append(bars, chart.Value{
			Label: s.Group,
			Value: s.AvgAvailability.Float64,
			Style: chart.Style{FillColor: upColor, StrokeColor: upColor},
		})
	}
	if len(bars) == 0 {
		return nil
	}

	graph := chart.BarChart{
		Title:      "Average Availability by Group",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		BarWidth:   40,
		YAxis: chart.YAxis{
			Name:           "Availability %",
			Style:          chart.Style{StrokeColor: drawing.ColorBlack, FontSize: 10},
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
			GridMajorStyle: gridStyle,
		},
		Bars: bars,
	}

	file, err := os.Create(filepath.Join(outputDir, "availability.png"))
	if err != nil {
		return err
	}
	defer file.Close()
	return graph.Render(chart.PNG, file)
}

// generateLatencyChart plots the sensors with the highest average latency
func (g *Generator) generateLatencyChart(outputDir string, records []models.AvailabilityRecord) error {
	var withLatency []models.AvailabilityRecord
	for _, r := range records {
		if r.AvgLatencyMs.Valid {
			withLatency = append(withLatency, r)
		}
	}
	if len(withLatency) == 0 {
		return nil
	}
	sort.SliceStable(withLatency, func(i, j int) bool {
		return withLatency[i].AvgLatencyMs.Float64 > withLatency[j].AvgLatencyMs.Float64
	})
	if len(withLatency) > maxLatencyBars {
		withLatency = withLatency[:maxLatencyBars]
	}

	maxLatency := withLatency[0].AvgLatencyMs.Float64
	if maxLatency <= 0 {
		return nil
	}
	var bars []chart.Value
	for _, r := range withLatency {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s/%s", r.Device, r.Sensor),
			Value: r.AvgLatencyMs.Float64,
		})
	}

	graph := chart.BarChart{
		Title:      "Average Latency (highest first)",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		BarWidth:   30,
		YAxis: chart.YAxis{
			Name:           "Latency (ms)",
			Style:          chart.Style{StrokeColor: drawing.ColorBlack, FontSize: 10},
			Range:          &chart.ContinuousRange{Min: 0, Max: maxLatency * 1.1},
			GridMajorStyle: gridStyle,
		},
		Bars: bars,
	}

	file, err := os.Create(filepath.Join(outputDir, "latency.png"))
	if err != nil {
		return err
	}
	defer file.Close()
	return graph.Render(chart.PNG, file)
}

// generateSamplesChart stacks up, down and omitted samples per group
func (g *Generator) generateSamplesChart(outputDir string, summaries []models.GroupSummary) error {
	var bars []chart.StackedBar
	for _, s := range summaries {
		if s.UpSamples+s.DownSamples+s.OmittedSamples == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{
			Name: s.Group,
			Values: []chart.Value{
				{Label: "up", Value: float64(s.UpSamples), Style: chart.Style{FillColor: upColor, StrokeColor: upColor}},
				{Label: "down", Value: float64(s.DownSamples), Style: chart.Style{FillColor: downColor, StrokeColor: downColor}},
				{Label: "omitted", Value: float64(s.OmittedSamples), Style: chart.Style{FillColor: omittedColor, StrokeColor: omittedColor}},
			},
		})
	}
	if len(bars) == 0 {
		return nil
	}

	graph := chart.StackedBarChart{
		Title:      "Sample Classification by Group",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		BarSpacing: 40,
		Bars:       bars,
	}

	file, err := os.Create(filepath.Join(outputDir, "samples.png"))
	if err != nil {
		return err
	}
	defer file.Close()
	return graph.Render(chart.PNG, file)
}
