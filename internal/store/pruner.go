package store

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes snapshots older than a retention period. Its Prune method
// is run by the scheduler as the snapshot-prune task.
type Pruner struct {
	store     *Store
	retention time.Duration
	now       func() time.Time
}

// NewPruner creates a pruner. A retention of zero keeps everything.
func NewPruner(store *Store, retention time.Duration) *Pruner {
	return &Pruner{
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

// Retention returns the configured retention period.
func (p *Pruner) Retention() time.Duration {
	return p.retention
}

// Prune deletes snapshots older than the retention period.
func (p *Pruner) Prune(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}
	cutoff := p.now().Add(-p.retention)
	rows, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("pruning failed", "table", "snapshots", "error", err)
		return err
	}
	if rows > 0 {
		slog.Info("pruned old data", "table", "snapshots", "rows", rows, "cutoff", cutoff)
	}
	return nil
}
