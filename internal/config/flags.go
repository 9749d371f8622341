package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Overrides holds command-line values that win over the config file
type Overrides struct {
	URL          string
	Username     string
	Passhash     string
	Insecure     bool
	Workers      int
	RequestDelay time.Duration
	Retries      int
	RetryDelay   time.Duration
	Mode         string
	DBDriver     string
	DBPath       string
	DBDSN        string
	CSV          string
	XLSX         string
	Port         int
	LogLevel     string
	Development  bool
}

// Register declares the override flags on fs
func (o *Overrides) Register(fs *pflag.FlagSet) {
	d := Defaults()
	fs.StringVar(&o.URL, "prtg-url", "", "PRTG base URL, e.g. https://prtg.example.com")
	fs.StringVar(&o.Username, "username", "", "PRTG user name")
	fs.StringVar(&o.Passhash, "passhash", "", "PRTG passhash")
	fs.BoolVar(&o.Insecure, "insecure", d.PRTG.InsecureSkipVerify, "Skip TLS certificate verification")
	fs.IntVar(&o.Workers, "workers", d.Collector.Workers, "Sensors processed concurrently")
	fs.DurationVar(&o.RequestDelay, "request-delay", d.Collector.RequestDelay, "Minimum delay between historic requests")
	fs.IntVar(&o.Retries, "retries", d.Retry.MaxAttempts, "Attempts per PRTG request")
	fs.DurationVar(&o.RetryDelay, "retry-delay", d.Retry.Delay, "Delay between attempts")
	fs.StringVar(&o.Mode, "mode", d.Collector.Mode, "Value recovery: auto, structured or textscan")
	fs.StringVar(&o.DBDriver, "db-driver", d.Database.Driver, "Storage driver: sqlite, postgres or none")
	fs.StringVar(&o.DBPath, "db", d.Database.Path, "SQLite database path")
	fs.StringVar(&o.DBDSN, "dsn", "", "PostgreSQL connection string")
	fs.StringVar(&o.CSV, "csv", "", "Write results to this CSV file")
	fs.StringVar(&o.XLSX, "xlsx", "", "Write results to this XLSX file")
	fs.IntVar(&o.Port, "port", d.Web.Port, "Web server port")
	fs.StringVar(&o.LogLevel, "log-level", d.Log.Level, "Log level")
	fs.BoolVar(&o.Development, "dev-log", false, "Human readable console logs")
}

// Apply copies every flag the user actually set onto cfg
func (o *Overrides) Apply(fs *pflag.FlagSet, cfg *Config) {
	set := func(name string, apply func()) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("prtg-url", func() { cfg.PRTG.URL = o.URL })
	set("username", func() { cfg.PRTG.Username = o.Username })
	set("passhash", func() { cfg.PRTG.Passhash = o.Passhash })
	set("insecure", func() { cfg.PRTG.InsecureSkipVerify = o.Insecure })
	set("workers", func() { cfg.Collector.Workers = o.Workers })
	set("request-delay", func() { cfg.Collector.RequestDelay = o.RequestDelay })
	set("retries", func() { cfg.Retry.MaxAttempts = o.Retries })
	set("retry-delay", func() { cfg.Retry.Delay = o.RetryDelay })
	set("mode", func() { cfg.Collector.Mode = o.Mode })
	set("db-driver", func() { cfg.Database.Driver = o.DBDriver })
	set("db", func() { cfg.Database.Path = o.DBPath })
	set("dsn", func() { cfg.Database.DSN = o.DBDSN })
	set("csv", func() { cfg.Output.CSV = o.CSV })
	set("xlsx", func() { cfg.Output.XLSX = o.XLSX })
	set("port", func() { cfg.Web.Port = o.Port })
	set("log-level", func() { cfg.Log.Level = o.LogLevel })
	set("dev-log", func() { cfg.Log.Development = o.Development })
}
