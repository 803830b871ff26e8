// Package regression 将本次运行与最近一次持久化的运行进行比较，输出回归告警。
package regression

import (
	"context"

	"go.uber.org/zap"

	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// 回归告警
const (
	MsgP95Worsened     = "p95 latency has worsened significantly."
	MsgP99Worsened     = "p99 latency has worsened significantly."
	MsgThroughputDrop  = "Throughput has dropped noticeably."
	MsgErrorRateRise   = "Error rate increased."
	MsgHealthScoreDrop = "Health score has dropped by more than 10 points."
)

// 阈值
const (
	LatencyIncreaseThreshold = 50.0 // 百分比
	ThroughputDropThreshold  = 30.0 // 百分比
	HealthScoreDropThreshold = 10
)

// LastRecorder 提供最近一次持久化的运行摘要。
type LastRecorder interface {
	Last(ctx context.Context) (types.RunSummary, bool, error)
}

// Comparator 基于历史存储做回归比较。
type Comparator struct {
	store LastRecorder
}

// NewComparator 创建比较器。store 为 nil 时始终视为没有历史。
func NewComparator(store LastRecorder) *Comparator {
	return &Comparator{store: store}
}

// Compare 读取上一次运行并与 current 比较。
// 存储不可用时降级为“无历史”，返回空结果而不是错误。
func (c *Comparator) Compare(ctx context.Context, current types.RunMetrics) []string {
	if c == nil || c.store == nil {
		return []string{}
	}

	previous, ok, err := c.store.Last(ctx)
	if err != nil {
		logger.Warn("history unavailable, skipping regression check", zap.Error(err))
		return []string{}
	}
	if !ok {
		return []string{}
	}
	return CompareMetrics(current, previous.RunMetrics)
}

// CompareMetrics 按固定顺序返回所有触发的回归告警。
//
// 吞吐量检查以本次吞吐量为分母：pctChange(previous, current)。
// 与延迟检查方向相反，保持现有行为。
func CompareMetrics(current, previous types.RunMetrics) []string {
	msgs := []string{}

	if pctChange(current.P95Latency, previous.P95Latency) > LatencyIncreaseThreshold {
		msgs = append(msgs, MsgP95Worsened)
	}
	if pctChange(current.P99Latency, previous.P99Latency) > LatencyIncreaseThreshold {
		msgs = append(msgs, MsgP99Worsened)
	}
	if pctChange(previous.Throughput, current.Throughput) > ThroughputDropThreshold {
		msgs = append(msgs, MsgThroughputDrop)
	}
	if current.ErrorRate > previous.ErrorRate {
		msgs = append(msgs, MsgErrorRateRise)
	}
	if current.HealthScore < previous.HealthScore-HealthScoreDropThreshold {
		msgs = append(msgs, MsgHealthScoreDrop)
	}
	return msgs
}

// pctChange 返回 (newV - oldV) / oldV * 100，oldV 为 0 时返回 0。
func pctChange(newV, oldV float64) float64 {
	if oldV == 0 {
		return 0
	}
	return (newV - oldV) / oldV * 100
}
