package types

// RunReport 是一次运行返回给调用方的完整结果。
// Diagnosis 包含诊断规则输出及其后追加的回归告警；Regressions 单独列出回归告警。
type RunReport struct {
	RunSummary

	Regressions []string `json:"regressions"`

	// Latencies 是本次运行全部样本的延迟（秒），仅供进程内报告器使用，不序列化。
	Latencies []float64 `json:"-" yaml:"-"`
}

// NewRunReport 创建运行报告。
func NewRunReport(summary RunSummary, regressions []string) *RunReport {
	if regressions == nil {
		regressions = []string{}
	}
	return &RunReport{
		RunSummary:  summary,
		Regressions: regressions,
	}
}
