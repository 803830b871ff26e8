package types

// RunMetrics 是一次运行所有 RequestOutcome 的统计汇总。
// 计算完成后不可修改，由回归比较器和持久化层消费。
type RunMetrics struct {
	TotalRequests int     `json:"total_requests" yaml:"total_requests"`
	AvgLatency    float64 `json:"avg_latency" yaml:"avg_latency"`
	MaxLatency    float64 `json:"max_latency" yaml:"max_latency"`
	P95Latency    float64 `json:"p95_latency" yaml:"p95_latency"`
	P99Latency    float64 `json:"p99_latency" yaml:"p99_latency"`
	StdDevLatency float64 `json:"latency_stddev" yaml:"latency_stddev"`

	// ErrorRate 是非 2xx 结果所占比例，取值 [0, 1]。
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`

	// Throughput 是成功请求数除以观测到的最大延迟，而不是墙钟时长。
	Throughput float64 `json:"throughput" yaml:"throughput"`

	// HealthScore 取值 0-100。
	HealthScore int `json:"health_score" yaml:"health_score"`

	// Diagnosis 依次为错误率、延迟、吞吐量的分类，其后追加回归告警。
	Diagnosis []string `json:"diagnosis" yaml:"diagnosis"`
}
