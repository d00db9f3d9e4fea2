// Package forecast projects hourly resource usage from snapshot history and
// flags projected values that cross sensitivity-adjusted thresholds.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// ErrInsufficientData is matched by InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient history")

// ErrInvalidHorizon is returned for a horizon below one hour.
var ErrInvalidHorizon = errors.New("forecast horizon must be at least 1 hour")

// InsufficientDataError reports how many snapshots were available.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient history: have %d snapshots, need %d", e.Have, e.Need)
}

// Is lets errors.Is match ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// shape describes how one metric is projected.
type shape struct {
	// periodic and noise amplitudes; relative ones are fractions of the anchor.
	periodic float64
	noise    float64
	relative bool
	pct      bool
}

var (
	cpuShape     = shape{periodic: 5, noise: 3, pct: true}
	memoryShape  = shape{periodic: 3, noise: 2, pct: true}
	diskShape    = shape{periodic: 0.5, noise: 0.2, pct: true}
	networkShape = shape{periodic: 0.10, noise: 0.05, relative: true}
)

// Forecaster produces hourly projections. The zero value uses ZeroNoise
// and time.Now.
type Forecaster struct {
	Noise NoiseSource
	Now   func() time.Time
}

// New returns a Forecaster with the given noise source.
func New(noise NoiseSource) *Forecaster {
	return &Forecaster{Noise: noise, Now: time.Now}
}

func (f *Forecaster) noise() NoiseSource {
	if f.Noise == nil {
		return ZeroNoise{}
	}
	return f.Noise
}

func (f *Forecaster) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// Forecast projects horizonHours points from history (oldest first). The
// last snapshot is the anchor; each metric follows a linear trend plus a
// 24-hour periodic component plus bounded noise.
func (f *Forecaster) Forecast(history []model.MetricSnapshot, horizonHours int) ([]model.ForecastPoint, error) {
	if len(history) == 0 {
		return nil, &InsufficientDataError{Have: 0, Need: 1}
	}
	if horizonHours < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizonHours)
	}

	first, anchor := history[0], history[len(history)-1]
	n := float64(len(history))

	cpuTrend := (anchor.CPUUsagePct - first.CPUUsagePct) / n
	memTrend := (anchor.MemoryUsagePct() - first.MemoryUsagePct()) / n
	diskTrend := (anchor.DiskUsagePct() - first.DiskUsagePct()) / n
	netTrend := (anchor.NetworkTrafficMiB() - first.NetworkTrafficMiB()) / n

	noise := f.noise()
	points := make([]model.ForecastPoint, 0, horizonHours)
	for i := 1; i <= horizonHours; i++ {
		points = append(points, model.ForecastPoint{
			Timestamp:           anchor.CapturedAt.Add(time.Duration(i) * time.Hour),
			CPUUsagePct:         project(cpuShape, anchor.CPUUsagePct, cpuTrend, i, noise.Next()),
			MemoryUsagePct:      project(memoryShape, anchor.MemoryUsagePct(), memTrend, i, noise.Next()),
			DiskUsagePct:        project(diskShape, anchor.DiskUsagePct(), diskTrend, i, noise.Next()),
			NetworkTrafficUnits: project(networkShape, anchor.NetworkTrafficMiB(), netTrend, i, noise.Next()),
		})
	}
	return points, nil
}

func project(s shape, anchor, trend float64, i int, n float64) float64 {
	periodic, noise := s.periodic, s.noise
	if s.relative {
		periodic *= anchor
		noise *= anchor
	}
	v := anchor + trend*float64(i) + periodic*math.Sin(2*math.Pi*float64(i)/24) + noise*n
	if s.pct {
		return model.ClampPct(v)
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Analyze runs Forecast, DetectAnomalies and GenerateSolutions in sequence.
func (f *Forecaster) Analyze(history []model.MetricSnapshot, horizonHours int, sensitivity float64) (model.ForecastReport, error) {
	points, err := f.Forecast(history, horizonHours)
	if err != nil {
		return model.ForecastReport{}, err
	}
	anomalies := DetectAnomalies(points, sensitivity)
	return model.ForecastReport{
		GeneratedAt:  f.now(),
		HorizonHours: horizonHours,
		Sensitivity:  clampUnit(sensitivity),
		HistorySize:  len(history),
		Points:       points,
		Anomalies:    anomalies,
		Solutions:    GenerateSolutions(anomalies),
	}, nil
}
