package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prtg-extract/internal/collector"
	"prtg-extract/internal/export"
	"prtg-extract/internal/models"
	"prtg-extract/internal/report"
	"prtg-extract/internal/web"
)

// outputs returns the configured export paths, or fallback when none is set
func (a *app) outputs(fallback string) []string {
	var paths []string
	for _, p := range []string{a.cfg.Output.CSV, a.cfg.Output.XLSX} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 && fallback != "" {
		paths = append(paths, fallback)
	}
	return paths
}

func (a *app) export(t export.Table, fallback string) error {
	for _, path := range a.outputs(fallback) {
		if err := export.Write(path, t); err != nil {
			return err
		}
		a.log.Info("Export written", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	}
	return nil
}

func (a *app) devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Export every device visible to the PRTG user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			devices, err := client.Devices(cmd.Context())
			if err != nil {
				if len(devices) == 0 {
					return err
				}
				a.log.Warn("Device listing incomplete", zap.Error(err))
			}
			a.log.Info("Devices listed", zap.Int("count", len(devices)))
			return a.export(export.DevicesTable(devices), "devices.csv")
		},
	}
}

func (a *app) sensorsCmd() *cobra.Command {
	var deviceID int64
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Export all sensors, or the sensors of one device",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			sensors, err := client.Sensors(cmd.Context(), deviceID)
			if err != nil {
				if len(sensors) == 0 {
					return err
				}
				a.log.Warn("Sensor listing incomplete", zap.Error(err))
			}
			a.log.Info("Sensors listed", zap.Int("count", len(sensors)))
			return a.export(export.SensorsTable(sensors), "sensors.csv")
		},
	}
	cmd.Flags().Int64Var(&deviceID, "device", 0, "Only sensors of this device ID")
	return cmd
}

func (a *app) channelsCmd() *cobra.Command {
	var deviceID int64
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Export the channels of every sensor of a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			inv := collector.NewInventory(client, a.cfg.Collector.RequestDelay, a.log)
			rows, err := inv.Channels(cmd.Context(), deviceID)
			if err != nil && len(rows) == 0 {
				return err
			}
			a.log.Info("Channels listed", zap.Int("rows", len(rows)))
			return a.export(export.ChannelsTable(rows), "channels.csv")
		},
	}
	cmd.Flags().Int64Var(&deviceID, "device", 0, "Device ID (0 lists every sensor)")
	return cmd
}

func (a *app) availabilityCmd() *cobra.Command {
	var (
		groups      []int64
		start, end  string
		metricsPort int
	)
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Reconstruct historical availability of the ping sensors below groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(groups) == 0 {
				return errors.New("at least one --groups ID is required")
			}
			w, err := models.ParseWindow(start, end)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := client.CheckConnection(ctx); err != nil {
				return fmt.Errorf("cannot reach PRTG: %w", err)
			}

			store, err := a.store(ctx)
			if err != nil {
				return err
			}
			var sink models.Sink
			if store != nil {
				defer store.Close()
				sink = store
			}

			if metricsPort > 0 {
				mctx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if err := web.New(nil, a.metrics, metricsPort, a.log).Start(mctx); err != nil {
						a.log.Error("Failed to serve metrics", zap.Error(err))
					}
				}()
			}

			c, err := collector.New(a.cfg.Collector, client, sink, a.log, a.metrics)
			if err != nil {
				return err
			}
			run, runErr := c.Run(ctx, groups, w)

			fallback := ""
			if store == nil {
				fallback = "availability.xlsx"
			}
			if err := a.export(export.AvailabilityTable(run.Records()), fallback); err != nil {
				a.log.Error("Failed to export results", zap.Error(err))
			}

			a.log.Info("Summary",
				zap.Int("sensors", run.Summary.Sensors),
				zap.Int("inserted", run.Summary.Inserted),
				zap.Int("duplicates", run.Summary.Duplicates),
				zap.Int("failed", run.Summary.Failed),
				zap.Int("fetch_failed", run.Summary.FetchFailed),
				zap.Int("skipped", run.Summary.Skipped))
			return runErr
		},
	}
	cmd.Flags().Int64SliceVar(&groups, "groups", nil, "PRTG group IDs, comma separated")
	cmd.Flags().StringVar(&start, "start", "", "Window start (YYYY-MM-DD or YYYY-MM-DD-HH-MM-SS)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (YYYY-MM-DD or YYYY-MM-DD-HH-MM-SS)")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Serve /metrics on this port during the run")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) filterFlags(cmd *cobra.Command, f *models.RecordFilter, from, to *string) {
	cmd.Flags().StringVar(&f.Group, "group", "", "Only records of this group name")
	cmd.Flags().Int64Var(&f.SensorID, "sensor", 0, "Only records of this sensor ID")
	cmd.Flags().StringVar(from, "from", "", "Earliest window start")
	cmd.Flags().StringVar(to, "to", "", "Latest window end")
}

func resolveFilter(f models.RecordFilter, from, to string) (models.RecordFilter, error) {
	if from != "" {
		w, err := models.ParseWindow(from, from)
		if err != nil {
			return f, err
		}
		f.From = w.StartString()
	}
	if to != "" {
		w, err := models.ParseWindow(to, to)
		if err != nil {
			return f, err
		}
		f.To = w.EndString()
	}
	return f, nil
}

func (a *app) reportCmd() *cobra.Command {
	var (
		outDir   string
		filter   models.RecordFilter
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render charts and a text summary from stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFilter(filter, from, to)
			if err != nil {
				return err
			}
			store, err := a.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			dir, err := report.NewGenerator(store, a.log).GenerateReport(cmd.Context(), outDir, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report generated in: %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "./reports", "Output directory for reports")
	a.filterFlags(cmd, &filter, &from, &to)
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored records and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			a.log.Info("Web interface available", zap.String("url", fmt.Sprintf("http://localhost:%d/api/summary", a.cfg.Web.Port)))
			return web.New(store, a.metrics, a.cfg.Web.Port, a.log).Start(cmd.Context())
		},
	}
}

func (a *app) pruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored records older than a retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Retention period")
	return cmd
}
