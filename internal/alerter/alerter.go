// Package alerter evaluates metric snapshots against severity thresholds.
package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// Notifier delivers an alert. Implementations are best-effort and report
// delivery success.
type Notifier interface {
	SendAlert(ctx context.Context, al model.Alert, subject string, recipients []string) bool
}

// Alerter evaluates snapshots, records alerts in the cache ring and hands
// warning and critical alerts to the notifier.
type Alerter struct {
	cache      *cache.Cache
	notifier   Notifier
	table      Table
	recipients []string

	wg sync.WaitGroup
}

// NewAlerter creates a new alerter. notifier may be nil.
func NewAlerter(c *cache.Cache, n Notifier, table Table, recipients []string) *Alerter {
	return &Alerter{
		cache:      c,
		notifier:   n,
		table:      table,
		recipients: recipients,
	}
}

// Table returns the thresholds in use.
func (a *Alerter) Table() Table {
	return a.table
}

// Evaluate raises alerts for a snapshot. Notifications are sent
// asynchronously, one per warning or critical alert; their failures are
// logged and never affect the returned alerts.
func (a *Alerter) Evaluate(ctx context.Context, s model.MetricSnapshot) []model.Alert {
	alerts := Evaluate(s, a.table)
	a.cache.AppendAlerts(alerts...)

	for _, al := range alerts {
		slog.Warn("alert raised",
			"id", al.ID,
			"severity", al.Severity,
			"source", al.Source,
			"metric", al.Metric,
			"value", al.Value,
			"threshold", al.Threshold,
		)
		if al.Severity == model.SeverityWarning || al.Severity == model.SeverityCritical {
			a.notify(ctx, al)
		}
	}
	return alerts
}

func (a *Alerter) notify(ctx context.Context, al model.Alert) {
	if a.notifier == nil {
		return
	}
	// Delivery outlives the evaluating task's context.
	ctx = context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("notifier panicked", "alert", al.ID, "panic", fmt.Sprint(r))
			}
		}()
		if !a.notifier.SendAlert(ctx, al, Subject(al), a.recipients) {
			slog.Error("alert notification not delivered", "alert", al.ID, "severity", al.Severity)
		}
	}()
}

// Wait blocks until all in-flight notifications have returned.
func (a *Alerter) Wait() {
	a.wg.Wait()
}
