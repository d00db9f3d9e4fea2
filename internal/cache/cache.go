// Package cache holds the in-memory runtime state shared by the pipeline and
// the HTTP layer: the latest snapshot, the bounded alert history, the last
// forecast report and per-task run times.
package cache

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// DefaultAlertCapacity is the alert ring size used when none is configured.
const DefaultAlertCapacity = 100

// Cache is a thread-safe in-memory store for runtime state.
type Cache struct {
	mu sync.RWMutex

	latest   *model.MetricSnapshot
	forecast *model.ForecastReport
	lastRun  map[string]time.Time

	// alerts is a ring buffer; head is the index of the oldest entry.
	alerts []model.Alert
	head   int
	size   int
}

// CacheSnapshot is a read-only deep copy of the cache state.
type CacheSnapshot struct {
	Latest   *model.MetricSnapshot
	Forecast *model.ForecastReport
	Alerts   []model.Alert // newest first
	LastRun  map[string]time.Time
}

// New returns a Cache whose alert ring keeps the most recent capacity alerts.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultAlertCapacity
	}
	return &Cache{
		lastRun: make(map[string]time.Time),
		alerts:  make([]model.Alert, capacity),
	}
}

// Capacity returns the alert ring size.
func (c *Cache) Capacity() int {
	return len(c.alerts)
}

// SetLatest records the most recent snapshot.
func (c *Cache) SetLatest(s model.MetricSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = &s
}

// Latest returns the most recent snapshot, if any.
func (c *Cache) Latest() (model.MetricSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return model.MetricSnapshot{}, false
	}
	return *c.latest, true
}

// AppendAlerts adds alerts to the ring, evicting the oldest on overflow.
// The whole batch is appended under one lock.
func (c *Cache) AppendAlerts(alerts ...model.Alert) {
	if len(alerts) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	capacity := len(c.alerts)
	for _, a := range alerts {
		if c.size < capacity {
			c.alerts[(c.head+c.size)%capacity] = a
			c.size++
			continue
		}
		c.alerts[c.head] = a
		c.head = (c.head + 1) % capacity
	}
}

// Alerts returns up to limit alerts, newest first. A limit <= 0 returns all.
func (c *Cache) Alerts(limit int) []model.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alertsLocked(limit)
}

func (c *Cache) alertsLocked(limit int) []model.Alert {
	n := c.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Alert, 0, n)
	capacity := len(c.alerts)
	for i := 0; i < n; i++ {
		idx := (c.head + c.size - 1 - i) % capacity
		out = append(out, c.alerts[idx])
	}
	return out
}

// AlertCount returns the number of alerts currently held.
func (c *Cache) AlertCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// SetForecast records a copy of the latest forecast report.
func (c *Cache) SetForecast(r model.ForecastReport) {
	cp := cloneReport(r)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forecast = &cp
}

// Forecast returns the latest forecast report, if any.
func (c *Cache) Forecast() (model.ForecastReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.forecast == nil {
		return model.ForecastReport{}, false
	}
	return cloneReport(*c.forecast), true
}

func cloneReport(r model.ForecastReport) model.ForecastReport {
	r.Points = slices.Clone(r.Points)
	r.Anomalies = slices.Clone(r.Anomalies)
	if r.Solutions != nil {
		sols := make([]model.Solution, len(r.Solutions))
		for i, s := range r.Solutions {
			s.Suggestions = slices.Clone(s.Suggestions)
			s.AutomatedActions = slices.Clone(s.AutomatedActions)
			sols[i] = s
		}
		r.Solutions = sols
	}
	return r
}

// SetLastRun records when a task last completed.
func (c *Cache) SetLastRun(taskID string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRun[taskID] = t
}

// Snapshot returns a deep copy of the cache contents.
func (c *Cache) Snapshot() CacheSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := CacheSnapshot{
		Alerts:  c.alertsLocked(0),
		LastRun: make(map[string]time.Time, len(c.lastRun)),
	}
	if c.latest != nil {
		cp := *c.latest
		snap.Latest = &cp
	}
	if c.forecast != nil {
		cp := cloneReport(*c.forecast)
		snap.Forecast = &cp
	}
	maps.Copy(snap.LastRun, c.lastRun)
	return snap
}
