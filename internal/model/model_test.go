package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUsagePct(t *testing.T) {
	tests := []struct {
		name  string
		used  int64
		total int64
		want  float64
	}{
		{"half", 50, 100, 50},
		{"zero total", 10, 0, 0},
		{"full", 100, 100, 100},
		{"over total clamps", 150, 100, 100},
		{"empty", 0, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MetricSnapshot{MemoryUsedBytes: tt.used, MemoryTotalBytes: tt.total, DiskUsedBytes: tt.used, DiskTotalBytes: tt.total}
			assert.InDelta(t, tt.want, s.MemoryUsagePct(), 1e-9)
			assert.InDelta(t, tt.want, s.DiskUsagePct(), 1e-9)
		})
	}
}

func TestNetworkTrafficMiB(t *testing.T) {
	s := MetricSnapshot{NetworkBytesIn: 1 << 20, NetworkBytesOut: 1 << 21}
	assert.InDelta(t, 3.0, s.NetworkTrafficMiB(), 1e-9)
}

func TestClampPct(t *testing.T) {
	assert.Equal(t, 0.0, ClampPct(-5))
	assert.Equal(t, 100.0, ClampPct(250))
	assert.Equal(t, 42.5, ClampPct(42.5))
	assert.Equal(t, 0.0, ClampPct(math.NaN()))
	assert.Equal(t, 100.0, ClampPct(math.Inf(1)))
	assert.Equal(t, 0.0, ClampPct(math.Inf(-1)))
}

func TestValidate(t *testing.T) {
	valid := MetricSnapshot{
		CPUUsagePct:      12,
		MemoryTotalBytes: 100,
		MemoryUsedBytes:  40,
		DiskTotalBytes:   1000,
		DiskUsedBytes:    10,
		CapturedAt:       time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*MetricSnapshot)
	}{
		{"zero timestamp", func(s *MetricSnapshot) { s.CapturedAt = time.Time{} }},
		{"cpu above 100", func(s *MetricSnapshot) { s.CPUUsagePct = 101 }},
		{"cpu negative", func(s *MetricSnapshot) { s.CPUUsagePct = -1 }},
		{"cpu nan", func(s *MetricSnapshot) { s.CPUUsagePct = math.NaN() }},
		{"cpu inf", func(s *MetricSnapshot) { s.CPUUsagePct = math.Inf(1) }},
		{"temperature nan", func(s *MetricSnapshot) { s.CPUTemperatureC = math.NaN() }},
		{"temperature inf", func(s *MetricSnapshot) { s.CPUTemperatureC = math.Inf(-1) }},
		{"negative memory", func(s *MetricSnapshot) { s.MemoryUsedBytes = -1 }},
		{"negative network", func(s *MetricSnapshot) { s.NetworkBytesIn = -1 }},
		{"memory used over total", func(s *MetricSnapshot) { s.MemoryUsedBytes = 200 }},
		{"disk used over total", func(s *MetricSnapshot) { s.DiskUsedBytes = 2000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)
		})
	}
}
