package reporter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yqhp/loadaudit/pkg/types"
)

// Reporter 报告输出端
type Reporter interface {
	// Name 返回报告器名称。
	Name() string

	// Report 输出一次运行的报告。
	Report(ctx context.Context, report *types.RunReport) error

	// Close 释放资源。
	Close(ctx context.Context) error
}

// ReporterType 报告器类型
type ReporterType string

const (
	// ReporterTypeConsole 输出到控制台
	ReporterTypeConsole ReporterType = "console"
	// ReporterTypeJSON 输出到 JSON 文件
	ReporterTypeJSON ReporterType = "json"
	// ReporterTypeCSV 追加到 CSV 结果表
	ReporterTypeCSV ReporterType = "csv"
	// ReporterTypePrometheus 推送到 Prometheus Push Gateway
	ReporterTypePrometheus ReporterType = "prometheus"
	// ReporterTypeWebhook 发送到 Webhook URL
	ReporterTypeWebhook ReporterType = "webhook"
	// ReporterTypeInfluxDB 写入 InfluxDB
	ReporterTypeInfluxDB ReporterType = "influxdb"
)

// ReporterConfig 单个报告器的配置
type ReporterConfig struct {
	Type    ReporterType   `yaml:"type"`
	Enabled bool           `yaml:"enabled"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// ReporterFactory 按配置创建报告器
type ReporterFactory func(config map[string]any) (Reporter, error)

// Registry 管理报告器工厂
type Registry struct {
	factories map[ReporterType]ReporterFactory
	mu        sync.RWMutex
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ReporterType]ReporterFactory),
	}
}

// Register 注册工厂，重复注册返回错误
func (r *Registry) Register(reporterType ReporterType, factory ReporterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reporterType]; exists {
		return fmt.Errorf("报告器类型已注册: %s", reporterType)
	}
	r.factories[reporterType] = factory
	return nil
}

// Create 创建指定类型的报告器
func (r *Registry) Create(reporterType ReporterType, config map[string]any) (Reporter, error) {
	r.mu.RLock()
	factory, exists := r.factories[reporterType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("未知的报告器类型: %s", reporterType)
	}
	return factory(config)
}

// ListTypes 返回已注册的类型（按名称排序）
func (r *Registry) ListTypes() []ReporterType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]ReporterType, 0, len(r.factories))
	for t := range r.factories {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// HasType 检查类型是否已注册
func (r *Registry) HasType(reporterType ReporterType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[reporterType]
	return exists
}
