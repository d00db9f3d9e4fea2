// Package monitor wires the sampler, store, alerter and forecaster into the
// built-in scheduled tasks.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/alerter"
	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/forecast"
	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// Sampler produces snapshots.
type Sampler interface {
	Sample(ctx context.Context) (model.MetricSnapshot, error)
}

// SnapshotStore is the persistence the monitor needs. *store.Store
// satisfies it.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.MetricSnapshot) (int64, error)
	Latest(ctx context.Context) (*model.MetricSnapshot, error)
	Window(ctx context.Context, since time.Time) ([]model.MetricSnapshot, error)
}

// ForecastOptions are the defaults for scheduled forecasts.
type ForecastOptions struct {
	HorizonHours  int
	HistoryWindow time.Duration
	Sensitivity   float64
}

// Monitor runs one step of the pipeline per call. Each exported method is a
// scheduler handler.
type Monitor struct {
	sampler    Sampler
	store      SnapshotStore
	cache      *cache.Cache
	alerter    *alerter.Alerter
	forecaster *forecast.Forecaster
	opts       ForecastOptions
	now        func() time.Time

	mu            sync.Mutex
	lastEvaluated time.Time
}

// New creates a monitor. store may be nil, in which case snapshots only live
// in the cache and forecasts use the latest cached snapshot.
func New(s Sampler, st SnapshotStore, c *cache.Cache, a *alerter.Alerter, f *forecast.Forecaster, opts ForecastOptions) *Monitor {
	if opts.HorizonHours <= 0 {
		opts.HorizonHours = 24
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 48 * time.Hour
	}
	return &Monitor{
		sampler:    s,
		store:      st,
		cache:      c,
		alerter:    a,
		forecaster: f,
		opts:       opts,
		now:        time.Now,
	}
}

// CollectMetrics samples the host, persists the snapshot and publishes it
// to the cache. A store failure is logged and does not fail the task.
func (m *Monitor) CollectMetrics(ctx context.Context) error {
	defer m.cache.SetLastRun(TaskMetricCollection, m.now())

	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sampling host: %w", err)
	}
	if m.store != nil {
		id, err := m.store.Save(ctx, snap)
		if err != nil {
			slog.Error("failed to store snapshot", "error", err)
		} else {
			snap.ID = id
		}
	}
	m.cache.SetLatest(snap)
	slog.Debug("metrics collected",
		"cpu_pct", snap.CPUUsagePct,
		"mem_pct", snap.MemoryUsagePct(),
		"disk_pct", snap.DiskUsagePct(),
	)
	return nil
}

// CheckAlerts evaluates the latest snapshot against the threshold table.
// A snapshot is evaluated at most once.
func (m *Monitor) CheckAlerts(ctx context.Context) error {
	defer m.cache.SetLastRun(TaskAlertCheck, m.now())

	snap, ok, err := m.latest(ctx)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("no snapshot to evaluate yet")
		return nil
	}

	m.mu.Lock()
	if !m.lastEvaluated.IsZero() && snap.CapturedAt.Equal(m.lastEvaluated) {
		m.mu.Unlock()
		slog.Debug("latest snapshot already evaluated", "captured_at", snap.CapturedAt)
		return nil
	}
	m.lastEvaluated = snap.CapturedAt
	m.mu.Unlock()

	alerts := m.alerter.Evaluate(ctx, snap)
	slog.Info("alert check complete", "alerts", len(alerts), "captured_at", snap.CapturedAt)
	return nil
}

// RunForecast produces a report with the configured horizon and sensitivity
// and publishes it to the cache.
func (m *Monitor) RunForecast(ctx context.Context) error {
	defer m.cache.SetLastRun(TaskForecast, m.now())

	report, err := m.Analyze(ctx, m.opts.HorizonHours, m.opts.Sensitivity)
	if err != nil {
		return err
	}
	m.cache.SetForecast(report)
	slog.Info("forecast complete",
		"horizon_hours", report.HorizonHours,
		"history", report.HistorySize,
		"anomalies", len(report.Anomalies),
	)
	return nil
}

// Analyze forecasts from the configured history window without touching
// the cache.
func (m *Monitor) Analyze(ctx context.Context, horizonHours int, sensitivity float64) (model.ForecastReport, error) {
	history, err := m.history(ctx)
	if err != nil {
		return model.ForecastReport{}, err
	}
	report, err := m.forecaster.Analyze(history, horizonHours, sensitivity)
	if err != nil {
		return model.ForecastReport{}, fmt.Errorf("forecasting: %w", err)
	}
	return report, nil
}

// Options returns the scheduled forecast defaults.
func (m *Monitor) Options() ForecastOptions {
	return m.opts
}

func (m *Monitor) latest(ctx context.Context) (model.MetricSnapshot, bool, error) {
	if snap, ok := m.cache.Latest(); ok {
		return snap, true, nil
	}
	if m.store == nil {
		return model.MetricSnapshot{}, false, nil
	}
	snap, err := m.store.Latest(ctx)
	if err != nil {
		return model.MetricSnapshot{}, false, fmt.Errorf("loading latest snapshot: %w", err)
	}
	if snap == nil {
		return model.MetricSnapshot{}, false, nil
	}
	return *snap, true, nil
}

func (m *Monitor) history(ctx context.Context) ([]model.MetricSnapshot, error) {
	if m.store == nil {
		if snap, ok := m.cache.Latest(); ok {
			return []model.MetricSnapshot{snap}, nil
		}
		return nil, nil
	}
	history, err := m.store.Window(ctx, m.now().Add(-m.opts.HistoryWindow))
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return history, nil
}
