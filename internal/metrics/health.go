package metrics

// HealthScore 从 100 开始，分别扣除延迟、错误率和吞吐量惩罚（累加），最低为 0。
func HealthScore(avgLatency, errorRate, throughput float64) int {
	score := 100 - LatencyPenalty(avgLatency) - ErrorRatePenalty(errorRate) - ThroughputPenalty(throughput)
	if score < 0 {
		return 0
	}
	return score
}

// LatencyPenalty 返回平均延迟（秒）对应的扣分。
func LatencyPenalty(avgLatency float64) int {
	switch {
	case avgLatency > 2.0:
		return 30
	case avgLatency > 1.0:
		return 15
	case avgLatency > 0.5:
		return 5
	default:
		return 0
	}
}

// ErrorRatePenalty 返回错误率对应的扣分。
func ErrorRatePenalty(errorRate float64) int {
	switch {
	case errorRate > 0.10:
		return 40
	case errorRate > 0.05:
		return 20
	case errorRate > 0.01:
		return 10
	default:
		return 0
	}
}

// ThroughputPenalty 返回吞吐量对应的扣分。
func ThroughputPenalty(throughput float64) int {
	switch {
	case throughput < 10:
		return 30
	case throughput < 20:
		return 15
	case throughput < 40:
		return 5
	default:
		return 0
	}
}
