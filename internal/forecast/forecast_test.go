package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func snap(hour int, cpu float64, memUsed, diskUsed, netMiB int64) model.MetricSnapshot {
	return model.MetricSnapshot{
		CPUUsagePct:      cpu,
		MemoryUsedBytes:  memUsed,
		MemoryTotalBytes: 100,
		DiskUsedBytes:    diskUsed,
		DiskTotalBytes:   100,
		NetworkBytesIn:   netMiB << 20,
		CapturedAt:       t0.Add(time.Duration(hour) * time.Hour),
	}
}

func history() []model.MetricSnapshot {
	return []model.MetricSnapshot{
		snap(0, 20, 40, 50, 100),
		snap(1, 30, 45, 51, 150),
		snap(2, 40, 50, 52, 200),
		snap(3, 50, 55, 53, 300),
	}
}

func TestForecast_EmptyHistory(t *testing.T) {
	f := &Forecaster{}
	_, err := f.Forecast(nil, 24)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 0, ide.Have)
}

func TestForecast_InvalidHorizon(t *testing.T) {
	f := &Forecaster{}
	_, err := f.Forecast(history(), 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestForecast_ZeroNoiseFormula(t *testing.T) {
	f := &Forecaster{Noise: ZeroNoise{}}
	h := history()
	points, err := f.Forecast(h, 24)
	require.NoError(t, err)
	require.Len(t, points, 24)

	// cpu trend = (50-20)/4 = 7.5 per hour.
	want := 50 + 7.5*1 + 5*math.Sin(2*math.Pi/24)
	assert.InDelta(t, want, points[0].CPUUsagePct, 1e-9)
	// memory trend = (55-40)/4.
	wantMem := 55 + 3.75*2 + 3*math.Sin(2*math.Pi*2/24)
	assert.InDelta(t, wantMem, points[1].MemoryUsagePct, 1e-9)
	// network periodic amplitude is 10% of the 300 MiB anchor.
	wantNet := 300 + 50.0*6 + 30*math.Sin(2*math.Pi*6/24)
	assert.InDelta(t, wantNet, points[5].NetworkTrafficUnits, 1e-6)

	for i, p := range points {
		assert.Equal(t, h[3].CapturedAt.Add(time.Duration(i+1)*time.Hour), p.Timestamp)
	}
}

func TestForecast_Deterministic(t *testing.T) {
	f := &Forecaster{Noise: ZeroNoise{}}
	a, err := f.Forecast(history(), 48)
	require.NoError(t, err)
	b, err := f.Forecast(history(), 48)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	r1, _ := New(NewRandomNoise(7)).Forecast(history(), 48)
	r2, _ := New(NewRandomNoise(7)).Forecast(history(), 48)
	assert.Equal(t, r1, r2, "same seed, same forecast")
}

func TestForecast_Bounded(t *testing.T) {
	h := []model.MetricSnapshot{snap(0, 0, 0, 0, 0), snap(1, 100, 100, 100, 0)}
	for _, noise := range []NoiseSource{FixedNoise(1), FixedNoise(-1), NewRandomNoise(42)} {
		points, err := New(noise).Forecast(h, 72)
		require.NoError(t, err)
		for _, p := range points {
			for _, v := range []float64{p.CPUUsagePct, p.MemoryUsagePct, p.DiskUsagePct} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
			assert.GreaterOrEqual(t, p.NetworkTrafficUnits, 0.0)
		}
	}
}

func TestForecast_NonFiniteHistoryStaysBounded(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
	}{
		{"nan last", 20, math.NaN()},
		{"nan first", math.NaN(), 20},
		{"positive inf", 20, math.Inf(1)},
		{"negative inf", 20, math.Inf(-1)},
		{"inf first", math.Inf(1), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := []model.MetricSnapshot{snap(0, tt.a, 40, 50, 1), snap(1, tt.b, 45, 51, 1)}
			points, err := New(NewRandomNoise(7)).Forecast(h, 6)
			require.NoError(t, err)
			for _, p := range points {
				assert.False(t, math.IsNaN(p.CPUUsagePct))
				assert.GreaterOrEqual(t, p.CPUUsagePct, 0.0)
				assert.LessOrEqual(t, p.CPUUsagePct, 100.0)
			}
		})
	}
}

func TestForecast_DecliningClampsAtZero(t *testing.T) {
	h := []model.MetricSnapshot{snap(0, 90, 90, 90, 500), snap(1, 1, 1, 1, 1)}
	points, err := New(FixedNoise(-1)).Forecast(h, 24)
	require.NoError(t, err)
	last := points[len(points)-1]
	assert.Zero(t, last.CPUUsagePct)
	assert.Zero(t, last.NetworkTrafficUnits)
}

func TestForecast_DoesNotMutateHistory(t *testing.T) {
	h := history()
	before := append([]model.MetricSnapshot(nil), h...)
	_, err := New(NewRandomNoise(1)).Forecast(h, 24)
	require.NoError(t, err)
	assert.Equal(t, before, h)
}

func TestForecast_SingleSnapshot(t *testing.T) {
	points, err := New(ZeroNoise{}).Forecast([]model.MetricSnapshot{snap(0, 40, 50, 60, 10)}, 24)
	require.NoError(t, err)
	// No trend; at i=24 the periodic term is back to ~0.
	assert.InDelta(t, 40.0, points[23].CPUUsagePct, 1e-9)
}

func TestDetectAnomalies_ThresholdInclusive(t *testing.T) {
	p := model.ForecastPoint{Timestamp: t0, CPUUsagePct: 75}
	got := DetectAnomalies([]model.ForecastPoint{p}, 0.5)

	require.Len(t, got, 1)
	assert.Equal(t, model.ForecastCPU, got[0].Metric)
	assert.Equal(t, 75.0, got[0].Threshold)
	assert.Equal(t, 0.5, got[0].Probability)
	assert.Equal(t, model.ImpactLow, got[0].Impact)

	p.CPUUsagePct = 74.99
	assert.Empty(t, DetectAnomalies([]model.ForecastPoint{p}, 0.5))
}

func TestDetectAnomalies_ImpactAndProbability(t *testing.T) {
	tests := []struct {
		name   string
		point  model.ForecastPoint
		metric string
		impact model.Impact
		prob   float64
	}{
		{"cpu medium", model.ForecastPoint{CPUUsagePct: 86}, model.ForecastCPU, model.ImpactMedium, 0.5 + 6.0/20},
		{"cpu high", model.ForecastPoint{CPUUsagePct: 100}, model.ForecastCPU, model.ImpactHigh, 1},
		{"memory medium", model.ForecastPoint{MemoryUsagePct: 91}, model.ForecastMemory, model.ImpactMedium, 0.5 + 6.0/15},
		{"disk medium", model.ForecastPoint{DiskUsagePct: 93}, model.ForecastDisk, model.ImpactMedium, 0.8},
		{"disk high", model.ForecastPoint{DiskUsagePct: 98}, model.ForecastDisk, model.ImpactHigh, 1},
		{"network low", model.ForecastPoint{NetworkTrafficUnits: 1000}, model.ForecastNetwork, model.ImpactLow, 0.5 + 100.0/1000},
		{"network high", model.ForecastPoint{NetworkTrafficUnits: 1500}, model.ForecastNetwork, model.ImpactHigh, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// sensitivity 0 keeps thresholds at their base.
			sens := 0.0
			if tt.metric == model.ForecastNetwork {
				sens = 0.5
			}
			got := DetectAnomalies([]model.ForecastPoint{tt.point}, sens)
			require.Len(t, got, 1)
			assert.Equal(t, tt.metric, got[0].Metric)
			assert.Equal(t, tt.impact, got[0].Impact)
			assert.InDelta(t, tt.prob, got[0].Probability, 1e-9)
			assert.GreaterOrEqual(t, got[0].Value, got[0].Threshold)
		})
	}
}

func TestDetectAnomalies_Order(t *testing.T) {
	points := []model.ForecastPoint{
		{Timestamp: t0, CPUUsagePct: 99, DiskUsagePct: 99},
		{Timestamp: t0.Add(time.Hour), MemoryUsagePct: 99, NetworkTrafficUnits: 5000},
	}
	got := DetectAnomalies(points, 0.5)
	metrics := make([]string, len(got))
	for i, a := range got {
		metrics[i] = a.Metric
	}
	assert.Equal(t, []string{"cpu", "disk", "memory", "network"}, metrics)
}

func TestDetectAnomalies_SensitivityMonotonic(t *testing.T) {
	points, err := New(NewRandomNoise(3)).Forecast([]model.MetricSnapshot{snap(0, 60, 60, 70, 700), snap(1, 78, 82, 88, 900)}, 48)
	require.NoError(t, err)

	low := DetectAnomalies(points, 0.3)
	high := DetectAnomalies(points, 0.9)
	assert.GreaterOrEqual(t, len(high), len(low))

	key := func(a model.Anomaly) string { return a.Metric + a.Timestamp.String() }
	inHigh := map[string]bool{}
	for _, a := range high {
		inHigh[key(a)] = true
	}
	for _, a := range low {
		assert.True(t, inHigh[key(a)], "anomaly %s at 0.3 missing at 0.9", key(a))
	}
}

func TestDetectAnomalies_SensitivityClamped(t *testing.T) {
	p := []model.ForecastPoint{{CPUUsagePct: 70}}
	assert.Equal(t, DetectAnomalies(p, 1), DetectAnomalies(p, 5))
	assert.Equal(t, DetectAnomalies(p, 0), DetectAnomalies(p, -3))
	assert.Equal(t, DetectAnomalies(p, 0), DetectAnomalies(p, math.NaN()))
}

func TestThreshold(t *testing.T) {
	th, ok := Threshold(model.ForecastDisk, 0.5)
	assert.True(t, ok)
	assert.Equal(t, 85.0, th)
	_, ok = Threshold("gpu", 0.5)
	assert.False(t, ok)
}

func TestGenerateSolutions(t *testing.T) {
	anomalies := []model.Anomaly{
		{Metric: model.ForecastNetwork},
		{Metric: model.ForecastCPU},
		{Metric: model.ForecastNetwork},
	}
	got := GenerateSolutions(anomalies)

	require.Len(t, got, 2)
	assert.Equal(t, model.ForecastCPU, got[0].Metric)
	assert.Equal(t, model.ForecastNetwork, got[1].Metric)
	assert.NotEmpty(t, got[0].Suggestions)
	assert.NotEmpty(t, got[0].AutomatedActions)

	assert.Empty(t, GenerateSolutions(nil))
}

func TestGenerateSolutions_ReturnsCopies(t *testing.T) {
	got := GenerateSolutions([]model.Anomaly{{Metric: model.ForecastDisk}})
	got[0].Suggestions[0] = "mutated"
	again := GenerateSolutions([]model.Anomaly{{Metric: model.ForecastDisk}})
	assert.NotEqual(t, "mutated", again[0].Suggestions[0])
}

func TestSolutionIffAnomaly(t *testing.T) {
	for seed := range uint64(20) {
		points, err := New(NewRandomNoise(seed)).Forecast(history(), 24)
		require.NoError(t, err)
		anomalies := DetectAnomalies(points, float64(seed)/20)
		solutions := GenerateSolutions(anomalies)

		withAnomaly := map[string]bool{}
		for _, a := range anomalies {
			withAnomaly[a.Metric] = true
		}
		assert.Len(t, solutions, len(withAnomaly))
		for _, s := range solutions {
			assert.True(t, withAnomaly[s.Metric])
		}
	}
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := &Forecaster{Noise: ZeroNoise{}, Now: func() time.Time { return now }}

	report, err := f.Analyze(history(), 12, 1.5)
	require.NoError(t, err)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, 12, report.HorizonHours)
	assert.Equal(t, 1.0, report.Sensitivity)
	assert.Equal(t, 4, report.HistorySize)
	assert.Len(t, report.Points, 12)
	// cpu climbs 7.5/h from 50 and crosses 70 within the horizon.
	assert.NotEmpty(t, report.Anomalies)
	assert.Equal(t, model.ForecastCPU, report.Solutions[0].Metric)

	_, err = f.Analyze(nil, 12, 0.5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNoiseSources(t *testing.T) {
	assert.Zero(t, ZeroNoise{}.Next())
	assert.Equal(t, 0.25, FixedNoise(0.25).Next())
	assert.Equal(t, 1.0, FixedNoise(7).Next())
	assert.Equal(t, -1.0, FixedNoise(-7).Next())

	r := NewRandomNoise(99)
	for range 1000 {
		v := r.Next()
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}

func FuzzForecast(f *testing.F) {
	f.Add(20.0, 80.0, int64(10), int64(90), int64(5), 24, 0.5, uint64(1))
	f.Add(0.0, 100.0, int64(0), int64(100), int64(0), 1, 1.0, uint64(2))
	f.Add(20.0, math.NaN(), int64(10), int64(20), int64(1), 3, 0.5, uint64(3))
	f.Add(math.Inf(1), 20.0, int64(10), int64(20), int64(1), 3, 0.5, uint64(4))
	f.Fuzz(func(t *testing.T, cpuA, cpuB float64, memA, memB, net int64, horizon int, sens float64, seed uint64) {
		if horizon < 1 || horizon > 500 {
			t.Skip()
		}
		if memA < 0 || memB < 0 || memA > 100 || memB > 100 || net < 0 || net > 1<<20 {
			t.Skip()
		}
		h := []model.MetricSnapshot{snap(0, cpuA, memA, memA, net), snap(1, cpuB, memB, memB, net)}
		report, err := New(NewRandomNoise(seed)).Analyze(h, horizon, sens)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if len(report.Points) != horizon {
			t.Fatalf("got %d points, want %d", len(report.Points), horizon)
		}
		for _, p := range report.Points {
			if math.IsNaN(p.CPUUsagePct) || p.CPUUsagePct < 0 || p.CPUUsagePct > 100 || p.NetworkTrafficUnits < 0 {
				t.Fatalf("point out of bounds: %+v", p)
			}
		}
		for _, a := range report.Anomalies {
			if a.Value < a.Threshold || a.Probability < 0 || a.Probability > 1 {
				t.Fatalf("bad anomaly: %+v", a)
			}
		}
	})
}
