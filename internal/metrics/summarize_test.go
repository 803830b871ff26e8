package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"yqhp/loadaudit/pkg/types"
)

func outcome(status int, latency float64) types.RequestOutcome {
	o := types.RequestOutcome{StatusCode: status, Latency: latency}
	if status == 0 {
		o.Error = "connection refused"
	}
	return o
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, types.RunMetrics{}, Summarize(nil))
	assert.Equal(t, types.RunMetrics{}, Summarize([]types.RequestOutcome{}))
}

func TestSummarize_Mixed(t *testing.T) {
	m := Summarize([]types.RequestOutcome{
		outcome(200, 0.3),
		outcome(200, 0.1),
		outcome(500, 0.4),
		outcome(204, 0.2),
		outcome(0, 0.5),
	})

	assert.Equal(t, 5, m.TotalRequests)
	assert.Equal(t, 0.3, m.AvgLatency)
	assert.Equal(t, 0.5, m.MaxLatency)
	assert.Equal(t, 0.48, m.P95Latency)
	assert.Equal(t, 0.496, m.P99Latency)
	assert.Equal(t, 0.1581, m.StdDevLatency)
	assert.Equal(t, 0.4, m.ErrorRate)
	assert.Equal(t, 6.0, m.Throughput, "3 successes / 0.5s max latency")
	assert.Equal(t, 30, m.HealthScore, "100 - 40 (errors) - 30 (throughput)")
	assert.Nil(t, m.Diagnosis)
}

func TestSummarize_SingleSample(t *testing.T) {
	m := Summarize([]types.RequestOutcome{outcome(200, 0.2)})

	assert.Equal(t, 1, m.TotalRequests)
	assert.Equal(t, 0.2, m.AvgLatency)
	assert.Equal(t, 0.2, m.MaxLatency)
	assert.Equal(t, 0.2, m.P95Latency)
	assert.Equal(t, 0.2, m.P99Latency)
	assert.Zero(t, m.StdDevLatency)
	assert.Zero(t, m.ErrorRate)
	assert.Equal(t, 5.0, m.Throughput)
}

func TestSummarize_RedirectsAndClientErrorsAreFailures(t *testing.T) {
	m := Summarize([]types.RequestOutcome{
		outcome(200, 0.01),
		outcome(299, 0.01),
		outcome(301, 0.01),
		outcome(404, 0.01),
	})
	assert.Equal(t, 0.5, m.ErrorRate)
}

func TestSummarize_ChaosCountsAsServerError(t *testing.T) {
	m := Summarize([]types.RequestOutcome{
		{StatusCode: 500, Latency: 0.2, Error: types.ChaosFailure},
		outcome(200, 0.1),
	})
	assert.Equal(t, 0.5, m.ErrorRate)
}

func TestSummarize_ZeroMaxLatencyDividesByOne(t *testing.T) {
	m := Summarize([]types.RequestOutcome{outcome(200, 0), outcome(200, 0), outcome(500, 0)})
	assert.Equal(t, 2.0, m.Throughput)
}

func TestSummarize_ThroughputIsNotWallClock(t *testing.T) {
	// 100 fast successes and one slow one: throughput is normalised by the slowest latency.
	outcomes := make([]types.RequestOutcome, 0, 101)
	for i := 0; i < 100; i++ {
		outcomes = append(outcomes, outcome(200, 0.01))
	}
	outcomes = append(outcomes, outcome(200, 2.0))

	m := Summarize(outcomes)
	assert.Equal(t, 50.5, m.Throughput)
}

func TestSummarize_AllFailures(t *testing.T) {
	m := Summarize([]types.RequestOutcome{outcome(0, 0.01), outcome(500, 0.3)})

	assert.Equal(t, 1.0, m.ErrorRate)
	assert.Zero(t, m.Throughput)
	assert.Equal(t, 30, m.HealthScore)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 100))
	assert.Equal(t, 2.5, Percentile(sorted, 50))
	assert.InDelta(t, 3.85, Percentile(sorted, 95), 1e-9)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 99))
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{3}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
}

func TestSummarize_HealthScoreUsesExactValues(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		successes  int
		latency    float64
		wantHealth int
	}{
		// 250/24901 = 0.01004，四舍五入后为 0.01，但仍超过 1% 阈值。
		{"error rate just above 1%", 250, 24651, 0.01, 90},
		{"error rate exactly 1%", 1, 99, 0.01, 100},
		// 0.50004 舍入后为 0.5，但仍超过 0.5s 阈值。
		{"latency just above 0.5s", 0, 100, 0.50004, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := make([]types.RequestOutcome, 0, tt.failures+tt.successes)
			for i := 0; i < tt.failures; i++ {
				outcomes = append(outcomes, outcome(500, tt.latency))
			}
			for i := 0; i < tt.successes; i++ {
				outcomes = append(outcomes, outcome(200, tt.latency))
			}

			m := Summarize(outcomes)
			assert.Equal(t, tt.wantHealth, m.HealthScore)
			assert.Equal(t, float64(tt.failures)/float64(tt.failures+tt.successes), m.ErrorRate)
		})
	}
}
