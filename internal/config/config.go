package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds all configuration for the extractor
type Config struct {
	PRTG      PRTGConfig      `yaml:"prtg" toml:"prtg"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry"`
	Collector CollectorConfig `yaml:"collector" toml:"collector"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
	Web       WebConfig       `yaml:"web" toml:"web"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// PRTGConfig locates and authenticates against the PRTG API
type PRTGConfig struct {
	URL         string `yaml:"url" toml:"url"`
	Username    string `yaml:"username" toml:"username"`
	Passhash    string `yaml:"passhash" toml:"passhash"`
	PasshashEnv string `yaml:"passhash_env" toml:"passhash_env"`
	// InsecureSkipVerify accepts self-signed certificates, which most PRTG
	// cores ship with
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`
	TableTimeout       time.Duration `yaml:"table_timeout" toml:"table_timeout"`
	HistoricTimeout    time.Duration `yaml:"historic_timeout" toml:"historic_timeout"`
	PageSize           int           `yaml:"page_size" toml:"page_size"`
}

// ResolvedPasshash prefers the literal passhash and falls back to the env var
func (p PRTGConfig) ResolvedPasshash() string {
	if p.Passhash != "" || p.PasshashEnv == "" {
		return p.Passhash
	}
	return os.Getenv(p.PasshashEnv)
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" toml:"max_attempts"`
	Delay       time.Duration `yaml:"delay" toml:"delay"`
	Exponential bool          `yaml:"exponential" toml:"exponential"`
	MaxDelay    time.Duration `yaml:"max_delay" toml:"max_delay"`
	// BreakerFailures consecutive failures open the circuit; 0 disables it
	BreakerFailures int           `yaml:"breaker_failures" toml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" toml:"breaker_cooldown"`
}

type CollectorConfig struct {
	Workers         int           `yaml:"workers" toml:"workers"`
	RequestDelay    time.Duration `yaml:"request_delay" toml:"request_delay"`
	SensorFilter    string        `yaml:"sensor_filter" toml:"sensor_filter"`
	AverageInterval int           `yaml:"average_interval" toml:"average_interval"`
	Mode            string        `yaml:"mode" toml:"mode"`
	SkipOverlapping bool          `yaml:"skip_overlapping" toml:"skip_overlapping"`
}

type DatabaseConfig struct {
	// Driver is sqlite, postgres or none
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
	DSN    string `yaml:"dsn" toml:"dsn"`
	DSNEnv string `yaml:"dsn_env" toml:"dsn_env"`
}

// Source returns the driver specific data source name
func (d DatabaseConfig) Source() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	if d.DSN != "" || d.DSNEnv == "" {
		return d.DSN
	}
	return os.Getenv(d.DSNEnv)
}

type OutputConfig struct {
	CSV  string `yaml:"csv" toml:"csv"`
	XLSX string `yaml:"xlsx" toml:"xlsx"`
}

type WebConfig struct {
	Port int `yaml:"port" toml:"port"`
}

type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// Defaults mirrors the pacing and retry behaviour of the original scripts
func Defaults() Config {
	return Config{
		PRTG: PRTGConfig{
			InsecureSkipVerify: true,
			TableTimeout:       20 * time.Second,
			HistoricTimeout:    60 * time.Second,
			PageSize:           500,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			Delay:           5 * time.Second,
			MaxDelay:        time.Minute,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Collector: CollectorConfig{
			Workers:         1,
			RequestDelay:    time.Second,
			SensorFilter:    "ping",
			AverageInterval: 3600,
			Mode:            "auto",
			SkipOverlapping: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "prtg_availability.db",
		},
		Web: WebConfig{Port: 8080},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PRTG.URL == "" {
		return fmt.Errorf("prtg.url is required")
	}
	if u, err := url.Parse(c.PRTG.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("prtg.url %q is not an absolute URL", c.PRTG.URL)
	}
	if c.PRTG.Username == "" {
		return fmt.Errorf("prtg.username is required")
	}
	if c.PRTG.ResolvedPasshash() == "" {
		return fmt.Errorf("prtg.passhash or prtg.passhash_env is required")
	}
	if c.PRTG.TableTimeout <= 0 || c.PRTG.HistoricTimeout <= 0 {
		return fmt.Errorf("prtg timeouts must be positive")
	}
	if c.PRTG.PageSize <= 0 {
		return fmt.Errorf("prtg.page_size must be positive")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay cannot be negative")
	}
	if c.Retry.BreakerFailures < 0 {
		return fmt.Errorf("retry.breaker_failures cannot be negative")
	}
	if c.Collector.Workers <= 0 {
		return fmt.Errorf("collector.workers must be positive")
	}
	if c.Collector.RequestDelay < 0 {
		return fmt.Errorf("collector.request_delay cannot be negative")
	}
	if c.Collector.AverageInterval <= 0 {
		return fmt.Errorf("collector.average_interval must be positive")
	}
	switch c.Collector.Mode {
	case "", "auto", "structured", "textscan":
	default:
		return fmt.Errorf("collector.mode must be auto, structured or textscan")
	}
	return c.validateStorage()
}

// ValidateStorage checks only what commands reading stored records need
func (c *Config) ValidateStorage() error {
	return c.validateStorage()
}

func (c *Config) validateStorage() error {
	switch c.Database.Driver {
	case "none":
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path cannot be empty")
		}
	case "postgres":
		if c.Database.Source() == "" {
			return fmt.Errorf("database.dsn or database.dsn_env is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
