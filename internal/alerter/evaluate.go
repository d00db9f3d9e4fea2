package alerter

import (
	"fmt"
	"strings"

	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/google/uuid"
)

// Level is a warning/critical threshold pair for one metric.
type Level struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// Table is the threshold table applied to every snapshot.
type Table struct {
	CPUUsage       Level `yaml:"cpu_usage" json:"cpu_usage"`
	CPUTemperature Level `yaml:"cpu_temperature" json:"cpu_temperature"`
	MemoryUsage    Level `yaml:"memory_usage" json:"memory_usage"`
	DiskUsage      Level `yaml:"disk_usage" json:"disk_usage"`
}

// DefaultTable returns the stock thresholds.
func DefaultTable() Table {
	return Table{
		CPUUsage:       Level{Warning: 70, Critical: 90},
		CPUTemperature: Level{Warning: 70, Critical: 85},
		MemoryUsage:    Level{Warning: 75, Critical: 90},
		DiskUsage:      Level{Warning: 80, Critical: 95},
	}
}

// Validate checks that every level has 0 < warning < critical.
func (t Table) Validate() error {
	for _, c := range t.checks(model.MetricSnapshot{}) {
		if c.level.Warning <= 0 || c.level.Critical <= 0 {
			return fmt.Errorf("%s %s: thresholds must be > 0", c.source, c.metric)
		}
		if c.level.Warning >= c.level.Critical {
			return fmt.Errorf("%s %s: warning %.1f must be below critical %.1f", c.source, c.metric, c.level.Warning, c.level.Critical)
		}
	}
	return nil
}

type check struct {
	source string
	metric string
	unit   string
	value  float64
	level  Level
}

// checks lists the metrics in evaluation order.
func (t Table) checks(s model.MetricSnapshot) []check {
	return []check{
		{model.SourceCPU, model.MetricUsage, "%", s.CPUUsagePct, t.CPUUsage},
		{model.SourceCPU, model.MetricTemperature, "°C", s.CPUTemperatureC, t.CPUTemperature},
		{model.SourceMemory, model.MetricUsage, "%", s.MemoryUsagePct(), t.MemoryUsage},
		{model.SourceDisk, model.MetricUsage, "%", s.DiskUsagePct(), t.DiskUsage},
	}
}

// Evaluate compares a snapshot against the table and returns at most one
// alert per metric, in the order cpu usage, cpu temperature, memory, disk.
// A metric that meets its critical threshold yields only the critical alert.
// The result depends only on its inputs.
func Evaluate(s model.MetricSnapshot, t Table) []model.Alert {
	var alerts []model.Alert
	for _, c := range t.checks(s) {
		var sev model.Severity
		var threshold float64
		switch {
		case c.value >= c.level.Critical:
			sev, threshold = model.SeverityCritical, c.level.Critical
		case c.value >= c.level.Warning:
			sev, threshold = model.SeverityWarning, c.level.Warning
		default:
			continue
		}
		alerts = append(alerts, model.Alert{
			ID:        alertID(s, c.source, c.metric, sev),
			Severity:  sev,
			Source:    c.source,
			Metric:    c.metric,
			Value:     c.value,
			Threshold: threshold,
			Message:   fmt.Sprintf("%s %s %.1f%s >= %s threshold %.1f%s", c.source, c.metric, c.value, c.unit, sev, threshold, c.unit),
			Timestamp: s.CapturedAt,
		})
	}
	return alerts
}

// alertID derives a stable name-based UUID so the same snapshot always
// produces the same alert ids.
func alertID(s model.MetricSnapshot, source, metric string, sev model.Severity) string {
	name := fmt.Sprintf("%d/%d/%s/%s/%s", s.ID, s.CapturedAt.UnixNano(), source, metric, sev)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// Subject returns a short human-readable title for an alert.
func Subject(a model.Alert) string {
	return fmt.Sprintf("%s %s %s", titleCase(a.Source), a.Metric, a.Severity)
}

func titleCase(s string) string {
	if s == "cpu" {
		return "CPU"
	}
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
