package forecast

import (
	"slices"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

var catalogue = map[string]model.Solution{
	model.ForecastCPU: {
		Metric: model.ForecastCPU,
		Suggestions: []string{
			"Identify the top CPU consumers and check for runaway processes",
			"Move batch jobs out of peak hours",
			"Scale out or add CPU capacity",
		},
		AutomatedActions: []string{
			"Lower the scheduling priority of non-critical workloads",
			"Throttle background jobs",
		},
	},
	model.ForecastMemory: {
		Metric: model.ForecastMemory,
		Suggestions: []string{
			"Look for memory leaks in long-running services",
			"Reduce cache sizes of memory-heavy services",
			"Add memory or swap capacity",
		},
		AutomatedActions: []string{
			"Restart services whose resident memory keeps growing",
			"Drop filesystem caches",
		},
	},
	model.ForecastDisk: {
		Metric: model.ForecastDisk,
		Suggestions: []string{
			"Archive or delete old logs and build artifacts",
			"Find large files and unused container images",
			"Grow the volume before it fills",
		},
		AutomatedActions: []string{
			"Rotate and compress logs",
			"Prune stale snapshots and temporary files",
		},
	},
	model.ForecastNetwork: {
		Metric: model.ForecastNetwork,
		Suggestions: []string{
			"Check for unexpected bulk transfers or backups during peak hours",
			"Enable compression for large transfers",
			"Review bandwidth limits with the provider",
		},
		AutomatedActions: []string{
			"Apply rate limits to bulk transfer jobs",
			"Reschedule backups to off-peak hours",
		},
	},
}

// GenerateSolutions returns one Solution per metric that has at least one
// anomaly, in the order cpu, memory, disk, network.
func GenerateSolutions(anomalies []model.Anomaly) []model.Solution {
	present := map[string]bool{}
	for _, a := range anomalies {
		present[a.Metric] = true
	}

	var out []model.Solution
	for _, r := range rules {
		if !present[r.metric] {
			continue
		}
		s := catalogue[r.metric]
		out = append(out, model.Solution{
			Metric:           s.Metric,
			Suggestions:      slices.Clone(s.Suggestions),
			AutomatedActions: slices.Clone(s.AutomatedActions),
		})
	}
	return out
}
