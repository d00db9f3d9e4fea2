// Package config handles loading and validating hostwatch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrConfigFileNotFound is returned by Load when the specified config file does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config is the top-level hostwatch configuration.
type Config struct {
	Listen           string               `yaml:"listen"`
	DBPath           string               `yaml:"db_path"`
	LogLevel         string               `yaml:"log_level"`
	LogFormat        string               `yaml:"log_format"`
	DiskPath         string               `yaml:"disk_path"`
	AlertHistorySize int                  `yaml:"alert_history_size"`
	CPUWindow        Duration             `yaml:"cpu_window"`
	Retention        Duration             `yaml:"retention"`
	Thresholds       ThresholdsConfig     `yaml:"thresholds"`
	Forecast         ForecastConfig       `yaml:"forecast"`
	Tasks            TasksConfig          `yaml:"tasks"`
	Notifications    []NotificationConfig `yaml:"notifications"`
}

// Level is a warning/critical threshold pair.
type Level struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// ThresholdsConfig holds the alerting threshold table.
type ThresholdsConfig struct {
	CPUUsage       Level `yaml:"cpu_usage"`
	CPUTemperature Level `yaml:"cpu_temperature"`
	MemoryUsage    Level `yaml:"memory_usage"`
	DiskUsage      Level `yaml:"disk_usage"`
}

// ForecastConfig controls the scheduled and on-demand forecaster.
type ForecastConfig struct {
	HorizonHours  int      `yaml:"horizon_hours"`
	HistoryWindow Duration `yaml:"history_window"`
	Sensitivity   float64  `yaml:"sensitivity"`
}

// TaskConfig controls one built-in scheduled task.
type TaskConfig struct {
	Schedule  string `yaml:"schedule"`
	Enabled   bool   `yaml:"enabled"`
	NoOverlap bool   `yaml:"no_overlap"`
}

// TasksConfig holds the built-in task schedules.
type TasksConfig struct {
	MetricCollection TaskConfig `yaml:"metric_collection"`
	AlertCheck       TaskConfig `yaml:"alert_check"`
	Forecast         TaskConfig `yaml:"forecast"`
	SnapshotPrune    TaskConfig `yaml:"snapshot_prune"`
}

// NotificationConfig describes a notification target.
type NotificationConfig struct {
	Type       string            `yaml:"type"` // "log", "ntfy", "webhook" or "email"
	URL        string            `yaml:"url,omitempty"`
	Topic      string            `yaml:"topic,omitempty"`      // ntfy only
	Method     string            `yaml:"method,omitempty"`     // webhook only
	Headers    map[string]string `yaml:"headers,omitempty"`    // webhook only
	SMTPHost   string            `yaml:"smtp_host,omitempty"`  // email only
	SMTPPort   int               `yaml:"smtp_port,omitempty"`  // email only
	Username   string            `yaml:"username,omitempty"`   // email only
	Password   string            `yaml:"password,omitempty"`   // email only
	From       string            `yaml:"from,omitempty"`       // email only
	Recipients []string          `yaml:"recipients,omitempty"` // email only
}

// Duration wraps time.Duration with YAML string parsing support.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads configuration from a YAML file. If no path is given, defaults
// and environment variables are used. If a path is given and the file does
// not exist, ErrConfigFileNotFound is returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: text, json")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.AlertHistorySize < 1 {
		return fmt.Errorf("alert_history_size must be >= 1")
	}
	if c.CPUWindow.Duration < 0 {
		return fmt.Errorf("cpu_window must be >= 0")
	}
	if c.Retention.Duration < 0 {
		return fmt.Errorf("retention must be >= 0")
	}

	levels := []struct {
		name string
		l    Level
	}{
		{"cpu_usage", c.Thresholds.CPUUsage},
		{"cpu_temperature", c.Thresholds.CPUTemperature},
		{"memory_usage", c.Thresholds.MemoryUsage},
		{"disk_usage", c.Thresholds.DiskUsage},
	}
	for _, lv := range levels {
		if lv.l.Warning <= 0 || lv.l.Critical <= 0 {
			return fmt.Errorf("thresholds.%s: warning and critical must be > 0", lv.name)
		}
		if lv.l.Warning >= lv.l.Critical {
			return fmt.Errorf("thresholds.%s: warning must be below critical", lv.name)
		}
	}

	if c.Forecast.HorizonHours < 1 {
		return fmt.Errorf("forecast.horizon_hours must be >= 1")
	}
	if c.Forecast.HistoryWindow.Duration <= 0 {
		return fmt.Errorf("forecast.history_window must be > 0")
	}
	if c.Forecast.Sensitivity < 0 || c.Forecast.Sensitivity > 1 {
		return fmt.Errorf("forecast.sensitivity must be within [0,1]")
	}

	tasks := []struct {
		name string
		t    TaskConfig
	}{
		{"metric_collection", c.Tasks.MetricCollection},
		{"alert_check", c.Tasks.AlertCheck},
		{"forecast", c.Tasks.Forecast},
		{"snapshot_prune", c.Tasks.SnapshotPrune},
	}
	for _, tc := range tasks {
		if _, err := cron.ParseStandard(tc.t.Schedule); err != nil {
			return fmt.Errorf("tasks.%s: invalid schedule %q: %w", tc.name, tc.t.Schedule, err)
		}
	}

	for i, n := range c.Notifications {
		switch n.Type {
		case "log":
		case "ntfy":
			if n.URL == "" {
				return fmt.Errorf("notifications[%d]: url is required for ntfy", i)
			}
			if n.Topic == "" {
				return fmt.Errorf("notifications[%d]: topic is required for ntfy", i)
			}
		case "webhook":
			if n.URL == "" {
				return fmt.Errorf("notifications[%d]: url is required for webhook", i)
			}
		case "email":
			if n.SMTPHost == "" {
				return fmt.Errorf("notifications[%d]: smtp_host is required for email", i)
			}
			if n.From == "" {
				return fmt.Errorf("notifications[%d]: from is required for email", i)
			}
			if len(n.Recipients) == 0 {
				return fmt.Errorf("notifications[%d]: at least one recipient is required for email", i)
			}
		default:
			return fmt.Errorf("notifications[%d]: unknown type %q (expected log, ntfy, webhook or email)", i, n.Type)
		}
	}

	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Listen:           ":3900",
		DBPath:           "/data/hostwatch.db",
		LogLevel:         "info",
		LogFormat:        "text",
		DiskPath:         "/",
		AlertHistorySize: 100,
		CPUWindow:        Duration{250 * time.Millisecond},
		Thresholds: ThresholdsConfig{
			CPUUsage:       Level{Warning: 70, Critical: 90},
			CPUTemperature: Level{Warning: 70, Critical: 85},
			MemoryUsage:    Level{Warning: 75, Critical: 90},
			DiskUsage:      Level{Warning: 80, Critical: 95},
		},
		Forecast: ForecastConfig{
			HorizonHours:  24,
			HistoryWindow: Duration{48 * time.Hour},
			Sensitivity:   0.5,
		},
		Tasks: TasksConfig{
			MetricCollection: TaskConfig{Schedule: "*/5 * * * *", Enabled: true},
			AlertCheck:       TaskConfig{Schedule: "*/10 * * * *", Enabled: true},
			Forecast:         TaskConfig{Schedule: "0 * * * *", Enabled: true},
			SnapshotPrune:    TaskConfig{Schedule: "@daily", Enabled: true},
		},
	}
}

// expandEnvVars replaces ${VAR_NAME} placeholders in raw YAML with the
// corresponding environment variable values. Unset variables become empty.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1]) // strip ${ and }
		return []byte(os.Getenv(key))
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOSTWATCH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("HOSTWATCH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("HOSTWATCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOSTWATCH_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("HOSTWATCH_DISK_PATH"); v != "" {
		cfg.DiskPath = v
	}
	if v := os.Getenv("HOSTWATCH_ALERT_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertHistorySize = n
		}
	}
	if v := os.Getenv("HOSTWATCH_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retention = Duration{d}
		}
	}
	if v := os.Getenv("HOSTWATCH_FORECAST_SENSITIVITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Forecast.Sensitivity = f
		}
	}
	if v := os.Getenv("HOSTWATCH_FORECAST_HORIZON_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.HorizonHours = n
		}
	}

	// Single ntfy target from env vars (only if no YAML notifications configured).
	if len(cfg.Notifications) == 0 {
		if ntfyURL := os.Getenv("HOSTWATCH_NTFY_URL"); ntfyURL != "" {
			topic := os.Getenv("HOSTWATCH_NTFY_TOPIC")
			if topic == "" {
				topic = "hostwatch-alerts"
			}
			cfg.Notifications = append(cfg.Notifications, NotificationConfig{
				Type:  "ntfy",
				URL:   ntfyURL,
				Topic: topic,
			})
		}
	}
	if v := os.Getenv("HOSTWATCH_EMAIL_RECIPIENTS"); v != "" {
		for i := range cfg.Notifications {
			if cfg.Notifications[i].Type == "email" && len(cfg.Notifications[i].Recipients) == 0 {
				cfg.Notifications[i].Recipients = strings.Split(v, ",")
			}
		}
	}
}
