package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "hostwatch.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOSTWATCH_LISTEN", "HOSTWATCH_DB_PATH", "HOSTWATCH_LOG_LEVEL", "HOSTWATCH_LOG_FORMAT",
		"HOSTWATCH_DISK_PATH", "HOSTWATCH_ALERT_HISTORY_SIZE", "HOSTWATCH_RETENTION",
		"HOSTWATCH_FORECAST_SENSITIVITY", "HOSTWATCH_FORECAST_HORIZON_HOURS",
		"HOSTWATCH_NTFY_URL", "HOSTWATCH_NTFY_TOPIC", "HOSTWATCH_EMAIL_RECIPIENTS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

const fullYAML = `
listen: ":9090"
db_path: "/tmp/test.db"
log_level: "debug"
log_format: "json"
disk_path: "/var"
alert_history_size: 50
cpu_window: "500ms"
retention: "720h"

thresholds:
  cpu_usage: {warning: 60, critical: 80}
  cpu_temperature: {warning: 65, critical: 80}
  memory_usage: {warning: 70, critical: 85}
  disk_usage: {warning: 85, critical: 97}

forecast:
  horizon_hours: 12
  history_window: "24h"
  sensitivity: 0.8

tasks:
  metric_collection:
    schedule: "@every 1m"
    enabled: true
    no_overlap: true
  alert_check:
    schedule: "*/2 * * * *"
    enabled: false

notifications:
  - type: log
  - type: ntfy
    url: "http://10.100.1.104:8080"
    topic: "host-alerts"
  - type: webhook
    url: "https://hooks.example.com/hostwatch"
    method: "PUT"
    headers:
      Authorization: "Bearer token123"
  - type: email
    smtp_host: "smtp.example.com"
    smtp_port: 587
    from: "hostwatch@example.com"
    recipients: ["ops@example.com"]
`

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeYAML(t, fullYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var", cfg.DiskPath)
	assert.Equal(t, 50, cfg.AlertHistorySize)
	assert.Equal(t, 500*time.Millisecond, cfg.CPUWindow.Duration)
	assert.Equal(t, 720*time.Hour, cfg.Retention.Duration)

	assert.Equal(t, Level{Warning: 60, Critical: 80}, cfg.Thresholds.CPUUsage)
	assert.Equal(t, Level{Warning: 85, Critical: 97}, cfg.Thresholds.DiskUsage)

	assert.Equal(t, 12, cfg.Forecast.HorizonHours)
	assert.Equal(t, 24*time.Hour, cfg.Forecast.HistoryWindow.Duration)
	assert.InDelta(t, 0.8, cfg.Forecast.Sensitivity, 1e-9)

	assert.Equal(t, "@every 1m", cfg.Tasks.MetricCollection.Schedule)
	assert.True(t, cfg.Tasks.MetricCollection.NoOverlap)
	assert.False(t, cfg.Tasks.AlertCheck.Enabled)
	// Untouched tasks keep their defaults.
	assert.Equal(t, "0 * * * *", cfg.Tasks.Forecast.Schedule)
	assert.True(t, cfg.Tasks.Forecast.Enabled)

	require.Len(t, cfg.Notifications, 4)
	assert.Equal(t, "log", cfg.Notifications[0].Type)
	assert.Equal(t, "host-alerts", cfg.Notifications[1].Topic)
	assert.Equal(t, "PUT", cfg.Notifications[2].Method)
	assert.Equal(t, "Bearer token123", cfg.Notifications[2].Headers["Authorization"])
	assert.Equal(t, 587, cfg.Notifications[3].SMTPPort)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Notifications[3].Recipients)
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	_, err := Load("/nonexistent/hostwatch.yml")
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3900", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.AlertHistorySize)
	assert.Equal(t, Level{Warning: 70, Critical: 90}, cfg.Thresholds.CPUUsage)
	assert.Equal(t, Level{Warning: 70, Critical: 85}, cfg.Thresholds.CPUTemperature)
	assert.Equal(t, Level{Warning: 75, Critical: 90}, cfg.Thresholds.MemoryUsage)
	assert.Equal(t, Level{Warning: 80, Critical: 95}, cfg.Thresholds.DiskUsage)
	assert.Equal(t, "*/5 * * * *", cfg.Tasks.MetricCollection.Schedule)
	assert.Equal(t, "*/10 * * * *", cfg.Tasks.AlertCheck.Schedule)
	assert.Zero(t, cfg.Retention.Duration)
	assert.Empty(t, cfg.Notifications)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeYAML(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_EnvVarSubstitution(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_NTFY_TOPIC", "from-env")
	cfg, err := Load(writeYAML(t, `
notifications:
  - type: ntfy
    url: "http://ntfy.local"
    topic: "${TEST_NTFY_TOPIC}"
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Notifications[0].Topic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTWATCH_LISTEN", ":7000")
	t.Setenv("HOSTWATCH_DB_PATH", "/tmp/env.db")
	t.Setenv("HOSTWATCH_ALERT_HISTORY_SIZE", "25")
	t.Setenv("HOSTWATCH_RETENTION", "48h")
	t.Setenv("HOSTWATCH_FORECAST_SENSITIVITY", "0.9")
	t.Setenv("HOSTWATCH_FORECAST_HORIZON_HOURS", "6")
	t.Setenv("HOSTWATCH_NTFY_URL", "http://ntfy.local")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, 25, cfg.AlertHistorySize)
	assert.Equal(t, 48*time.Hour, cfg.Retention.Duration)
	assert.InDelta(t, 0.9, cfg.Forecast.Sensitivity, 1e-9)
	assert.Equal(t, 6, cfg.Forecast.HorizonHours)
	require.Len(t, cfg.Notifications, 1)
	assert.Equal(t, "hostwatch-alerts", cfg.Notifications[0].Topic)
}

func TestLoad_EmailRecipientsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTWATCH_EMAIL_RECIPIENTS", "a@example.com,b@example.com")
	cfg, err := Load(writeYAML(t, `
notifications:
  - type: email
    smtp_host: "smtp.example.com"
    from: "hostwatch@example.com"
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notifications[0].Recipients)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeYAML(t, "listen: [unclosed"))
	assert.ErrorContains(t, err, "parsing config")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeYAML(t, `cpu_window: "soon"`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "db_path"},
		{"zero ring", func(c *Config) { c.AlertHistorySize = 0 }, "alert_history_size"},
		{"negative retention", func(c *Config) { c.Retention = Duration{-time.Hour} }, "retention"},
		{"warning above critical", func(c *Config) { c.Thresholds.CPUUsage = Level{Warning: 95, Critical: 90} }, "thresholds.cpu_usage"},
		{"zero threshold", func(c *Config) { c.Thresholds.DiskUsage = Level{} }, "thresholds.disk_usage"},
		{"zero horizon", func(c *Config) { c.Forecast.HorizonHours = 0 }, "horizon_hours"},
		{"zero window", func(c *Config) { c.Forecast.HistoryWindow = Duration{} }, "history_window"},
		{"sensitivity above one", func(c *Config) { c.Forecast.Sensitivity = 1.5 }, "sensitivity"},
		{"bad schedule", func(c *Config) { c.Tasks.AlertCheck.Schedule = "every tuesday" }, "tasks.alert_check"},
		{"ntfy without topic", func(c *Config) {
			c.Notifications = []NotificationConfig{{Type: "ntfy", URL: "http://x"}}
		}, "topic is required"},
		{"webhook without url", func(c *Config) {
			c.Notifications = []NotificationConfig{{Type: "webhook"}}
		}, "url is required"},
		{"email without recipients", func(c *Config) {
			c.Notifications = []NotificationConfig{{Type: "email", SMTPHost: "smtp", From: "a@b"}}
		}, "recipient"},
		{"unknown notification", func(c *Config) {
			c.Notifications = []NotificationConfig{{Type: "pager"}}
		}, "unknown type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}

func TestDuration_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration{90 * time.Second}})
	require.NoError(t, err)
	assert.Equal(t, "d: 1m30s\n", string(out))
}

func FuzzExpandEnvVars(f *testing.F) {
	f.Add([]byte("topic: ${HOME}"))
	f.Add([]byte("${}"))
	f.Add([]byte("plain"))
	f.Fuzz(func(t *testing.T, data []byte) {
		_ = expandEnvVars(data)
	})
}
