// Package diagnosis 将运行指标映射为人类可读的分类结论。
package diagnosis

import "yqhp/loadaudit/pkg/types"

// 错误率结论
const (
	ErrorRateAcceptable = "Error rate is within acceptable limits."
	ErrorRateMinor      = "Minor error rate detected, monitor for intermittent failures."
	ErrorRateHigh       = "High error rate detected, potential server overload or endpoint instability."
)

// 延迟结论
const (
	LatencyAcceptable = "Latency is acceptable."
	LatencyModerate   = "Moderate latency, monitor response times under sustained load."
	LatencyHigh       = "High average latency, investigate bottlenecks or consider caching."
)

// 吞吐量结论
const (
	ThroughputLow     = "Low throughput, service may not scale under load."
	ThroughputHealthy = "Throughput is healthy."
)

// Diagnose 按错误率、延迟、吞吐量的固定顺序返回三条结论。
func Diagnose(m types.RunMetrics) []string {
	return []string{
		errorRate(m.ErrorRate),
		latency(m.AvgLatency),
		throughput(m.Throughput),
	}
}

// Apply 将诊断结论写入 m.Diagnosis 并返回 m。
func Apply(m types.RunMetrics) types.RunMetrics {
	m.Diagnosis = Diagnose(m)
	return m
}

func errorRate(rate float64) string {
	switch {
	case rate < 0.01:
		return ErrorRateAcceptable
	case rate < 0.05:
		return ErrorRateMinor
	default:
		return ErrorRateHigh
	}
}

func latency(avg float64) string {
	switch {
	case avg < 1:
		return LatencyAcceptable
	case avg < 2:
		return LatencyModerate
	default:
		return LatencyHigh
	}
}

func throughput(tput float64) string {
	if tput < 1 {
		return ThroughputLow
	}
	return ThroughputHealthy
}
