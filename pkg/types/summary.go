package types

import "time"

// RunSummary 是运行历史中持久化的单条记录。
// 记录只追加，不会被改写或删除；插入顺序即时间顺序。
type RunSummary struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	URL       string    `json:"url" yaml:"url"`
	Users     int       `json:"users" yaml:"users"`
	Duration  int       `json:"duration" yaml:"duration"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	RunMetrics `yaml:",inline"`
}

// NewRunSummary 由请求和计算好的指标构建运行摘要。
func NewRunSummary(runID string, req *LoadTestRequest, metrics RunMetrics) RunSummary {
	return RunSummary{
		RunID:      runID,
		URL:        req.TargetURL,
		Users:      req.NumUsers,
		Duration:   req.Duration,
		CreatedAt:  time.Now().UTC(),
		RunMetrics: metrics,
	}
}
