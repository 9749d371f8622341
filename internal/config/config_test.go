package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() Config {
	cfg := Defaults()
	cfg.PRTG.URL = "https://prtg.example.com"
	cfg.PRTG.Username = "reporter"
	cfg.PRTG.Passhash = "123456"
	return cfg
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "prtgx.yaml", `
prtg:
  url: https://prtg.example.com
  username: reporter
  passhash_env: PRTGX_TEST_PASSHASH
  historic_timeout: 90s
retry:
  max_attempts: 5
  delay: 2s
collector:
  workers: 4
  mode: textscan
database:
  driver: postgres
  dsn: postgres://u:p@localhost/prtg
`)
	t.Setenv("PRTGX_TEST_PASSHASH", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.PRTG.ResolvedPasshash())
	assert.Equal(t, 90*time.Second, cfg.PRTG.HistoricTimeout)
	assert.Equal(t, 20*time.Second, cfg.PRTG.TableTimeout, "default kept")
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, 4, cfg.Collector.Workers)
	assert.Equal(t, "textscan", cfg.Collector.Mode)
	assert.Equal(t, "ping", cfg.Collector.SensorFilter)
	assert.Equal(t, "postgres://u:p@localhost/prtg", cfg.Database.Source())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "prtgx.toml", `
[prtg]
url = "https://prtg.example.com"
username = "reporter"
passhash = "abc"

[collector]
request_delay = "250ms"
average_interval = 900

[output]
csv = "out.csv"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250*time.Millisecond, cfg.Collector.RequestDelay)
	assert.Equal(t, 900, cfg.Collector.AverageInterval)
	assert.Equal(t, "out.csv", cfg.Output.CSV)
	assert.Equal(t, "prtg_availability.db", cfg.Database.Source())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "prtg: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "conf.json", "{}"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.PRTG.URL = "" }},
		{"relative url", func(c *Config) { c.PRTG.URL = "prtg/api" }},
		{"missing username", func(c *Config) { c.PRTG.Username = "" }},
		{"missing passhash", func(c *Config) { c.PRTG.Passhash = "" }},
		{"zero page size", func(c *Config) { c.PRTG.PageSize = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero workers", func(c *Config) { c.Collector.Workers = 0 }},
		{"negative delay", func(c *Config) { c.Collector.RequestDelay = -time.Second }},
		{"bad mode", func(c *Config) { c.Collector.Mode = "regex" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mssql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestOverridesApplyOnlyChangedFlags(t *testing.T) {
	var o Overrides
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.Register(fs)
	require.NoError(t, fs.Parse([]string{"--workers", "3", "--csv", "out.csv", "--db-driver", "none"}))

	cfg := validConfig()
	cfg.Collector.RequestDelay = 3 * time.Second
	o.Apply(fs, &cfg)

	assert.Equal(t, 3, cfg.Collector.Workers)
	assert.Equal(t, "out.csv", cfg.Output.CSV)
	assert.Equal(t, "none", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Collector.RequestDelay, "unset flag must not clobber file value")
	assert.Equal(t, "https://prtg.example.com", cfg.PRTG.URL)
}
