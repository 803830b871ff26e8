package metrics

import (
	"math"
	"sort"

	"github.com/duke-git/lancet/v2/mathutil"

	"yqhp/loadaudit/pkg/types"
)

// precision 是汇总指标保留的小数位数。
const precision = 4

// Summarize 将结果集合归约为 RunMetrics。
// 空输入返回全零指标，不视为错误。Diagnosis 由诊断规则另行填充。
func Summarize(outcomes []types.RequestOutcome) types.RunMetrics {
	total := len(outcomes)
	if total == 0 {
		return types.RunMetrics{}
	}

	latencies := make([]float64, total)
	successes := 0
	var sum float64
	for i, o := range outcomes {
		latencies[i] = o.Latency
		sum += o.Latency
		if o.IsSuccess() {
			successes++
		}
	}
	sort.Float64s(latencies)

	maxLatency := latencies[total-1]
	avg := sum / float64(total)
	errRate := float64(total-successes) / float64(total)
	tput := Throughput(successes, maxLatency)

	// 错误率与吞吐量保留原值；健康分基于未舍入的值计算，避免阈值附近被舍入翻转。
	m := types.RunMetrics{
		TotalRequests: total,
		AvgLatency:    round(avg),
		MaxLatency:    round(maxLatency),
		P95Latency:    round(Percentile(latencies, 95)),
		P99Latency:    round(Percentile(latencies, 99)),
		StdDevLatency: round(StdDev(latencies)),
		ErrorRate:     errRate,
		Throughput:    tput,
		HealthScore:   HealthScore(avg, errRate, tput),
	}
	return m
}

// Percentile 使用最近两个秩之间的线性插值计算已排序样本的第 p 百分位数。
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// StdDev 计算样本标准差（除以 n-1），样本少于 2 个时返回 0。
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// Throughput 返回成功请求数除以最大延迟；最大延迟为 0 时除以 1。
// 这里刻意不使用墙钟时长。
func Throughput(successes int, maxLatency float64) float64 {
	if maxLatency > 0 {
		return float64(successes) / maxLatency
	}
	return float64(successes)
}

func round(v float64) float64 {
	return mathutil.RoundToFloat(v, precision)
}
