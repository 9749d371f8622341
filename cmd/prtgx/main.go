package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prtg-extract/internal/config"
	"prtg-extract/internal/database"
	"prtg-extract/internal/logging"
	"prtg-extract/internal/metrics"
	"prtg-extract/internal/prtg"
)

// app carries what every subcommand shares once flags are parsed
type app struct {
	configPath string
	overrides  config.Overrides

	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "prtgx",
		Short:         "Extract inventories and historical availability from PRTG",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	a.overrides.Register(root.PersistentFlags())

	root.AddCommand(
		a.devicesCmd(),
		a.sensorsCmd(),
		a.channelsCmd(),
		a.availabilityCmd(),
		a.reportCmd(),
		a.serveCmd(),
		a.pruneCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.overrides.Apply(cmd.Flags(), &cfg)
	a.cfg = cfg

	a.log, err = logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.metrics = metrics.New()
	return nil
}

// client validates the full configuration and builds a PRTG client
func (a *app) client() (*prtg.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return prtg.New(a.cfg.PRTG, a.cfg.Retry, a.log, a.metrics)
}

// store opens the configured database, or returns nil when storage is disabled
func (a *app) store(ctx context.Context) (*database.DB, error) {
	if a.cfg.Database.Driver == "none" {
		return nil, nil
	}
	db, err := database.Open(a.cfg.Database.Driver, a.cfg.Database.Source(), a.log, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return db, nil
}

// requireStore is store for commands that cannot work without one
func (a *app) requireStore(ctx context.Context) (*database.DB, error) {
	if err := a.cfg.ValidateStorage(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("this command needs a database; database.driver is none")
	}
	return db, nil
}
