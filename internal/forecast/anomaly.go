package forecast

import (
	"math"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// rule is the anomaly threshold shape for one metric. The effective
// threshold is base - sensitivity*spread.
type rule struct {
	metric     string
	base       float64
	spread     float64
	normalizer float64
	lowBelow   float64 // excess under this is low impact
	medBelow   float64 // excess under this is medium impact
	value      func(model.ForecastPoint) float64
}

// rules are evaluated in this order within each point.
var rules = []rule{
	{model.ForecastCPU, 80, 10, 20, 5, 15, func(p model.ForecastPoint) float64 { return p.CPUUsagePct }},
	{model.ForecastMemory, 85, 10, 15, 5, 10, func(p model.ForecastPoint) float64 { return p.MemoryUsagePct }},
	{model.ForecastDisk, 90, 10, 10, 3, 7, func(p model.ForecastPoint) float64 { return p.DiskUsagePct }},
	{model.ForecastNetwork, 1000, 200, 1000, 200, 500, func(p model.ForecastPoint) float64 { return p.NetworkTrafficUnits }},
}

// Threshold returns the effective threshold for a metric at the given
// sensitivity, or false for an unknown metric.
func Threshold(metric string, sensitivity float64) (float64, bool) {
	for _, r := range rules {
		if r.metric == metric {
			return r.threshold(clampUnit(sensitivity)), true
		}
	}
	return 0, false
}

func (r rule) threshold(sensitivity float64) float64 {
	return r.base - sensitivity*r.spread
}

func (r rule) impact(excess float64) model.Impact {
	switch {
	case excess < r.lowBelow:
		return model.ImpactLow
	case excess < r.medBelow:
		return model.ImpactMedium
	default:
		return model.ImpactHigh
	}
}

// DetectAnomalies flags every point value at or above its metric's
// threshold. Higher sensitivity lowers the thresholds. Sensitivity is
// clamped to [0, 1].
func DetectAnomalies(points []model.ForecastPoint, sensitivity float64) []model.Anomaly {
	sensitivity = clampUnit(sensitivity)

	var out []model.Anomaly
	for _, p := range points {
		for _, r := range rules {
			v := r.value(p)
			th := r.threshold(sensitivity)
			if v < th {
				continue
			}
			out = append(out, model.Anomaly{
				Timestamp:   p.Timestamp,
				Metric:      r.metric,
				Value:       v,
				Threshold:   th,
				Probability: clampUnit(0.5 + (v-th)/r.normalizer),
				Impact:      r.impact(v - th),
			})
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
