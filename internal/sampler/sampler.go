// Package sampler reads host resource counters and produces metric snapshots.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// CPUTimes is a cumulative tick counter reading.
type CPUTimes struct {
	Idle  float64
	Total float64
}

// Source abstracts the operating system counters read by the sampler.
type Source interface {
	CPUTimes(ctx context.Context) (CPUTimes, error)
	CPUPercent(ctx context.Context) (float64, error)
	Temperature(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (used, total int64, err error)
	Disk(ctx context.Context, path string) (used, total int64, err error)
	Network(ctx context.Context) (in, out int64, err error)
}

// TransientSamplingError reports a counter that could not be read and was
// substituted with its last-known value.
type TransientSamplingError struct {
	Component string
	Err       error
}

func (e *TransientSamplingError) Error() string {
	return fmt.Sprintf("transient %s read failure: %v", e.Component, e.Err)
}

func (e *TransientSamplingError) Unwrap() error { return e.Err }

// SamplingError is returned when a required counter failed and no
// last-known value exists to substitute.
type SamplingError struct {
	Component string
	Err       error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling %s: %v", e.Component, e.Err)
}

func (e *SamplingError) Unwrap() error { return e.Err }

// Config holds sampler settings.
type Config struct {
	DiskPath  string
	CPUWindow time.Duration // gap between the two tick readings of the first sample
}

// Sampler produces MetricSnapshots. It remembers the previous CPU tick
// reading and the last snapshot so that consecutive samples can use deltas
// and substitute values on transient failures.
type Sampler struct {
	source Source
	cfg    Config
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	prevCPU *CPUTimes
	last    *model.MetricSnapshot
}

// New creates a sampler reading from source.
func New(source Source, cfg Config) *Sampler {
	if cfg.DiskPath == "" {
		cfg.DiskPath = "/"
	}
	return &Sampler{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sample reads all counters and returns a new snapshot. Network and
// temperature failures never fail the sample; CPU, memory and disk failures
// fall back to the last-known value and only fail the very first sample.
func (s *Sampler) Sample(ctx context.Context) (model.MetricSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.MetricSnapshot{}

	cpuPct, err := s.cpuUsage(ctx)
	if err != nil {
		if s.last == nil {
			return model.MetricSnapshot{}, &SamplingError{Component: "cpu", Err: err}
		}
		s.warnTransient("cpu", err)
		cpuPct = s.last.CPUUsagePct
	}
	snap.CPUUsagePct = model.ClampPct(cpuPct)

	if temp, err := s.source.Temperature(ctx); err != nil {
		slog.Debug("cpu temperature unavailable", "error", err)
		if s.last != nil {
			snap.CPUTemperatureC = s.last.CPUTemperatureC
		}
	} else {
		snap.CPUTemperatureC = temp
	}

	used, total, err := s.source.Memory(ctx)
	if err != nil {
		if s.last == nil {
			return model.MetricSnapshot{}, &SamplingError{Component: "memory", Err: err}
		}
		s.warnTransient("memory", err)
		used, total = s.last.MemoryUsedBytes, s.last.MemoryTotalBytes
	}
	snap.MemoryUsedBytes, snap.MemoryTotalBytes = used, total

	used, total, err = s.source.Disk(ctx, s.cfg.DiskPath)
	if err != nil {
		if s.last == nil {
			return model.MetricSnapshot{}, &SamplingError{Component: "disk", Err: err}
		}
		s.warnTransient("disk", err)
		used, total = s.last.DiskUsedBytes, s.last.DiskTotalBytes
	}
	snap.DiskUsedBytes, snap.DiskTotalBytes = used, total

	in, out, err := s.source.Network(ctx)
	if err != nil {
		s.warnTransient("network", err)
		in, out = 0, 0
		if s.last != nil {
			in, out = s.last.NetworkBytesIn, s.last.NetworkBytesOut
		}
	}
	snap.NetworkBytesIn, snap.NetworkBytesOut = in, out

	snap.CapturedAt = s.now().UTC()

	last := snap
	s.last = &last
	return snap, nil
}

func (s *Sampler) warnTransient(component string, err error) {
	slog.Warn("substituting last-known value", "error", &TransientSamplingError{Component: component, Err: err})
}

// cpuUsage computes busy time from the delta between two tick readings.
// The gauge is used when tick counters cannot be read.
func (s *Sampler) cpuUsage(ctx context.Context) (float64, error) {
	cur, err := s.source.CPUTimes(ctx)
	if err != nil {
		return s.source.CPUPercent(ctx)
	}

	if s.prevCPU == nil {
		first := cur
		if err := s.sleep(ctx, s.cfg.CPUWindow); err != nil {
			return 0, err
		}
		cur, err = s.source.CPUTimes(ctx)
		if err != nil {
			s.prevCPU = &first
			return s.source.CPUPercent(ctx)
		}
		s.prevCPU = &first
	}

	prev := *s.prevCPU
	s.prevCPU = &cur

	return busyPct(prev, cur), nil
}

func busyPct(prev, cur CPUTimes) float64 {
	total := cur.Total - prev.Total
	if total <= 0 || math.IsInf(total, 0) {
		return 0
	}
	idle := cur.Idle - prev.Idle
	pct := (total - idle) / total * 100
	if math.IsNaN(pct) {
		return 0
	}
	return model.ClampPct(pct)
}
