// Property-based tests for the metrics engine.
package metrics

import (
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"

	"yqhp/loadaudit/pkg/types"
)

var statusCodes = []int{0, 200, 201, 204, 301, 404, 500, 503}

func genOutcomes(t *rapid.T) []types.RequestOutcome {
	n := rapid.IntRange(1, 200).Draw(t, "n")
	out := make([]types.RequestOutcome, n)
	for i := range out {
		out[i] = types.RequestOutcome{
			StatusCode: rapid.SampledFrom(statusCodes).Draw(t, "status"),
			Latency:    rapid.Float64Range(0, 5).Draw(t, "latency"),
		}
	}
	return out
}

// TestSummarizeBoundsProperty: errorRate ∈ [0,1], healthScore ∈ [0,100], p95 ≤ p99 ≤ max.
func TestSummarizeBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := Summarize(genOutcomes(t))

		if m.ErrorRate < 0 || m.ErrorRate > 1 {
			t.Fatalf("error rate out of range: %v", m.ErrorRate)
		}
		if m.HealthScore < 0 || m.HealthScore > 100 {
			t.Fatalf("health score out of range: %v", m.HealthScore)
		}
		if m.P95Latency > m.P99Latency || m.P99Latency > m.MaxLatency {
			t.Fatalf("percentiles not monotone: p95=%v p99=%v max=%v", m.P95Latency, m.P99Latency, m.MaxLatency)
		}
	})
}

// TestSummarizeIdempotentProperty: summarising the same collection twice yields identical metrics.
func TestSummarizeIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		outcomes := genOutcomes(t)
		first := Summarize(outcomes)
		second := Summarize(outcomes)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("summaries differ: %+v vs %+v", first, second)
		}
	})
}

// TestHealthScoreLatencyMonotonicProperty: with error rate and throughput fixed,
// a higher average latency never yields a higher health score.
func TestHealthScoreLatencyMonotonicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("health score is non-increasing in latency", prop.ForAll(
		func(lat, delta, errRate, tput float64) bool {
			return HealthScore(lat+delta, errRate, tput) <= HealthScore(lat, errRate, tput)
		},
		gen.Float64Range(0, 5),
		gen.Float64Range(0, 5),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 200),
	))

	properties.Property("health score stays within [0, 100]", prop.ForAll(
		func(lat, errRate, tput float64) bool {
			s := HealthScore(lat, errRate, tput)
			return s >= 0 && s <= 100
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1e6),
	))

	properties.TestingRun(t)
}

// TestPercentileWithinRangeProperty: any percentile lies between min and max of the sample.
func TestPercentileWithinRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("percentile is bounded by the sample", prop.ForAll(
		func(samples []float64, p float64) bool {
			if len(samples) == 0 {
				return Percentile(samples, p) == 0
			}
			sorted := append([]float64(nil), samples...)
			sort.Float64s(sorted)
			v := Percentile(sorted, p)
			return v >= sorted[0]-1e-12 && v <= sorted[len(sorted)-1]+1e-12
		},
		gen.SliceOf(gen.Float64Range(0, 10)),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
