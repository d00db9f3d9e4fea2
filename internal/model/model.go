// Package model defines all shared domain types for hostwatch.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MetricSnapshot is a point-in-time reading of host resource counters.
// Snapshots are never mutated after the sampler creates them.
type MetricSnapshot struct {
	ID               int64     `json:"id,omitempty"`
	CPUUsagePct      float64   `json:"cpu_usage_pct"` // 0-100
	CPUTemperatureC  float64   `json:"cpu_temperature_c"`
	MemoryTotalBytes int64     `json:"memory_total_bytes"`
	MemoryUsedBytes  int64     `json:"memory_used_bytes"`
	DiskTotalBytes   int64     `json:"disk_total_bytes"`
	DiskUsedBytes    int64     `json:"disk_used_bytes"`
	NetworkBytesIn   int64     `json:"network_bytes_in"`
	NetworkBytesOut  int64     `json:"network_bytes_out"`
	CapturedAt       time.Time `json:"captured_at"`
}

// MemoryUsagePct returns used/total memory as a percentage in [0,100].
func (s MetricSnapshot) MemoryUsagePct() float64 {
	return usagePct(s.MemoryUsedBytes, s.MemoryTotalBytes)
}

// DiskUsagePct returns used/total disk as a percentage in [0,100].
func (s MetricSnapshot) DiskUsagePct() float64 {
	return usagePct(s.DiskUsedBytes, s.DiskTotalBytes)
}

// NetworkTrafficMiB returns combined in+out traffic in MiB.
func (s MetricSnapshot) NetworkTrafficMiB() float64 {
	return float64(s.NetworkBytesIn+s.NetworkBytesOut) / (1 << 20)
}

func usagePct(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return ClampPct(float64(used) / float64(total) * 100)
}

// ClampPct clamps v to [0,100]. NaN maps to 0.
func ClampPct(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// ErrInvalidSnapshot is wrapped by Validate failures.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Validate checks a snapshot that arrived from outside the sampler
// (database rows, API payloads).
func (s MetricSnapshot) Validate() error {
	if s.CapturedAt.IsZero() {
		return fmt.Errorf("%w: captured_at is required", ErrInvalidSnapshot)
	}
	if !finite(s.CPUUsagePct) || s.CPUUsagePct < 0 || s.CPUUsagePct > 100 {
		return fmt.Errorf("%w: cpu_usage_pct %.2f outside [0,100]", ErrInvalidSnapshot, s.CPUUsagePct)
	}
	if !finite(s.CPUTemperatureC) {
		return fmt.Errorf("%w: cpu_temperature_c is not finite", ErrInvalidSnapshot)
	}
	if s.MemoryTotalBytes < 0 || s.MemoryUsedBytes < 0 || s.DiskTotalBytes < 0 || s.DiskUsedBytes < 0 {
		return fmt.Errorf("%w: negative byte counter", ErrInvalidSnapshot)
	}
	if s.NetworkBytesIn < 0 || s.NetworkBytesOut < 0 {
		return fmt.Errorf("%w: negative network counter", ErrInvalidSnapshot)
	}
	if s.MemoryUsedBytes > s.MemoryTotalBytes {
		return fmt.Errorf("%w: memory used exceeds total", ErrInvalidSnapshot)
	}
	if s.DiskUsedBytes > s.DiskTotalBytes {
		return fmt.Errorf("%w: disk used exceeds total", ErrInvalidSnapshot)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Severity of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert sources and metrics.
const (
	SourceCPU    = "cpu"
	SourceMemory = "memory"
	SourceDisk   = "disk"

	MetricUsage       = "usage"
	MetricTemperature = "temperature"
)

// Alert is raised by the threshold evaluator from a single snapshot.
type Alert struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Source    string    `json:"source"` // "cpu", "memory", "disk"
	Metric    string    `json:"metric"` // "usage", "temperature"
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Forecast metric names.
const (
	ForecastCPU     = "cpu"
	ForecastMemory  = "memory"
	ForecastDisk    = "disk"
	ForecastNetwork = "network"
)

// ForecastPoint is one projected hour.
type ForecastPoint struct {
	Timestamp           time.Time `json:"timestamp"`
	CPUUsagePct         float64   `json:"cpu_usage_pct"`
	MemoryUsagePct      float64   `json:"memory_usage_pct"`
	DiskUsagePct        float64   `json:"disk_usage_pct"`
	NetworkTrafficUnits float64   `json:"network_traffic_units"` // MiB
}

// Impact tier of an anomaly.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Anomaly is a forecast point value at or above a sensitivity-adjusted threshold.
type Anomaly struct {
	Timestamp   time.Time `json:"timestamp"`
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Probability float64   `json:"probability"` // 0-1
	Impact      Impact    `json:"impact"`
}

// Solution lists remediation steps for one metric.
type Solution struct {
	Metric           string   `json:"metric"`
	Suggestions      []string `json:"suggestions"`
	AutomatedActions []string `json:"automated_actions"`
}

// ForecastReport bundles a forecast with its anomalies and solutions.
type ForecastReport struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	HorizonHours int             `json:"horizon_hours"`
	Sensitivity  float64         `json:"sensitivity"`
	HistorySize  int             `json:"history_size"`
	Points       []ForecastPoint `json:"points"`
	Anomalies    []Anomaly       `json:"anomalies"`
	Solutions    []Solution      `json:"solutions"`
}

// Notification is a structured message handed to notify providers.
type Notification struct {
	Severity   Severity  `json:"severity"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Recipients []string  `json:"recipients,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	// Alert is the originating alert, nil for free-form messages.
	Alert *Alert `json:"alert,omitempty"`
}

// TaskInfo is a read-only view of a scheduled task.
type TaskInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	NoOverlap   bool       `json:"no_overlap"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	RunCount    int64      `json:"run_count"`
}
