package monitor

import (
	"fmt"

	"github.com/darshan-rambhia/hostwatch/internal/alerter"
	"github.com/darshan-rambhia/hostwatch/internal/config"
	"github.com/darshan-rambhia/hostwatch/internal/scheduler"
	"github.com/darshan-rambhia/hostwatch/internal/store"
)

// Built-in task ids.
const (
	TaskMetricCollection = "metric-collection"
	TaskAlertCheck       = "alert-check"
	TaskForecast         = "forecast"
	TaskSnapshotPrune    = "snapshot-prune"
)

// Tasks builds the built-in task set. pruner may be nil, and the prune
// task is only enabled when it has a positive retention.
func Tasks(m *Monitor, pruner *store.Pruner, cfg config.TasksConfig) []scheduler.Task {
	tasks := []scheduler.Task{
		{
			ID:          TaskMetricCollection,
			Name:        "Metric collection",
			Description: "Sample host CPU, memory, disk and network counters and store the snapshot",
			Schedule:    cfg.MetricCollection.Schedule,
			Enabled:     cfg.MetricCollection.Enabled,
			NoOverlap:   cfg.MetricCollection.NoOverlap,
			Handler:     m.CollectMetrics,
		},
		{
			ID:          TaskAlertCheck,
			Name:        "Alert check",
			Description: "Evaluate the latest snapshot against the threshold table",
			Schedule:    cfg.AlertCheck.Schedule,
			Enabled:     cfg.AlertCheck.Enabled,
			NoOverlap:   cfg.AlertCheck.NoOverlap,
			Handler:     m.CheckAlerts,
		},
		{
			ID:          TaskForecast,
			Name:        "Forecast",
			Description: "Project resource usage and detect anomalies",
			Schedule:    cfg.Forecast.Schedule,
			Enabled:     cfg.Forecast.Enabled,
			NoOverlap:   cfg.Forecast.NoOverlap,
			Handler:     m.RunForecast,
		},
	}
	if pruner != nil {
		tasks = append(tasks, scheduler.Task{
			ID:          TaskSnapshotPrune,
			Name:        "Snapshot prune",
			Description: "Delete snapshots older than the retention period",
			Schedule:    cfg.SnapshotPrune.Schedule,
			Enabled:     cfg.SnapshotPrune.Enabled && pruner.Retention() > 0,
			NoOverlap:   true,
			Handler:     pruner.Prune,
		})
	}
	return tasks
}

// Register adds the built-in tasks to the scheduler.
func Register(s *scheduler.Scheduler, m *Monitor, pruner *store.Pruner, cfg config.TasksConfig) error {
	for _, t := range Tasks(m, pruner, cfg) {
		if err := s.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.ID, err)
		}
	}
	return nil
}

// Thresholds converts the configured threshold table.
func Thresholds(cfg config.ThresholdsConfig) alerter.Table {
	level := func(l config.Level) alerter.Level {
		return alerter.Level{Warning: l.Warning, Critical: l.Critical}
	}
	return alerter.Table{
		CPUUsage:       level(cfg.CPUUsage),
		CPUTemperature: level(cfg.CPUTemperature),
		MemoryUsage:    level(cfg.MemoryUsage),
		DiskUsage:      level(cfg.DiskUsage),
	}
}
