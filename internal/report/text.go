package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"prtg-extract/internal/models"
)

const worstSensors = 10

func (g *Generator) generateTextReport(outputDir string, records []models.AvailabilityRecord, summaries []models.GroupSummary) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	from, to := records[0].WindowStart, records[0].WindowEnd
	for _, r := range records {
		if r.WindowStart < from {
			from = r.WindowStart
		}
		if r.WindowEnd > to {
			to = r.WindowEnd
		}
	}

	fmt.Fprintf(file, "PRTG Availability Report\n")
	fmt.Fprintf(file, "Generated: %s\n", g.now().Format(models.RecordLayout))
	fmt.Fprintf(file, "Period: %s to %s\n", from, to)
	fmt.Fprintf(file, "Records: %s\n\n", humanize.Comma(int64(len(records))))
	fmt.Fprintln(file, strings.Repeat("=", 60))

	fmt.Fprintln(file, "\nGROUPS")
	for _, s := range summaries {
		fmt.Fprintf(file, "Group: %s\n", s.Group)
		fmt.Fprintf(file, "  Sensors: %d\n", s.Sensors)
		if s.AvgAvailability.Valid {
			fmt.Fprintf(file, "  Average Availability: %.2f%%\n", s.AvgAvailability.Float64)
			fmt.Fprintf(file, "  Lowest Availability: %.2f%%\n", s.MinAvailability.Float64)
		} else {
			fmt.Fprintln(file, "  Availability: no classified samples")
		}
		fmt.Fprintf(file, "  Samples: %s up, %s down, %s omitted\n",
			humanize.Comma(int64(s.UpSamples)),
			humanize.Comma(int64(s.DownSamples)),
			humanize.Comma(int64(s.OmittedSamples)))
		fmt.Fprintln(file)
	}
	fmt.Fprintln(file, strings.Repeat("=", 60))

	var measured, unmeasured []models.AvailabilityRecord
	for _, r := range records {
		if r.Availability.Valid {
			measured = append(measured, r)
		} else {
			unmeasured = append(unmeasured, r)
		}
	}
	sort.SliceStable(measured, func(i, j int) bool {
		return measured[i].Availability.Float64 < measured[j].Availability.Float64
	})

	fmt.Fprintf(file, "\nLOWEST AVAILABILITY (up to %d sensors)\n", worstSensors)
	for i, r := range measured {
		if i == worstSensors {
			break
		}
		fmt.Fprintf(file, "%2d. %s / %s / %s: %.2f%% (%s to %s)\n",
			i+1, r.Group, r.Device, r.Sensor, r.Availability.Float64, r.WindowStart, r.WindowEnd)
	}
	if len(measured) == 0 {
		fmt.Fprintln(file, "No sensor has classified samples.")
	}

	if len(unmeasured) > 0 {
		fmt.Fprintf(file, "\nSENSORS WITHOUT CLASSIFIED SAMPLES: %d\n", len(unmeasured))
		for _, r := range unmeasured {
			fmt.Fprintf(file, "  %s / %s / %s (%s to %s)\n", r.Group, r.Device, r.Sensor, r.WindowStart, r.WindowEnd)
		}
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))
	fmt.Fprintln(file, "\nAvailability is reconstructed from PRTG historic data; samples with partial coverage are omitted.")
	return file.Close()
}
