package history

import (
	"time"

	"yqhp/loadaudit/pkg/types"
)

func summary(runID string, health int) types.RunSummary {
	return types.RunSummary{
		RunID:     runID,
		URL:       "http://localhost:8080/api",
		Users:     10,
		Duration:  5,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		RunMetrics: types.RunMetrics{
			TotalRequests: 1000,
			AvgLatency:    0.05,
			MaxLatency:    0.2,
			P95Latency:    0.09,
			P99Latency:    0.15,
			StdDevLatency: 0.01,
			ErrorRate:     0.002,
			Throughput:    4990,
			HealthScore:   health,
			Diagnosis:     []string{"Error rate is within acceptable limits.", "Latency is acceptable.", "Throughput is healthy."},
		},
	}
}

func runIDs(records []types.RunSummary) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RunID)
	}
	return ids
}
