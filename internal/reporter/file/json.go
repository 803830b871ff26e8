// Package file 提供基于文件的报告器：每次运行一个 JSON 报告文件，以及追加式 CSV 结果表。
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"yqhp/loadaudit/pkg/types"
)

// JSONConfig JSON 报告器配置
type JSONConfig struct {
	// Dir 输出目录，文件名为 report_<run_id>.json
	Dir string `yaml:"dir"`
	// Pretty 是否缩进输出
	Pretty bool `yaml:"pretty"`
}

// DefaultJSONConfig 返回默认配置
func DefaultJSONConfig() *JSONConfig {
	return &JSONConfig{
		Dir:    "reports",
		Pretty: true,
	}
}

// JSONReporter 将每次运行的报告写入独立的 JSON 文件
type JSONReporter struct {
	config *JSONConfig
}

// NewJSONReporter 创建 JSON 报告器
func NewJSONReporter(config *JSONConfig) *JSONReporter {
	if config == nil {
		config = DefaultJSONConfig()
	}
	return &JSONReporter{config: config}
}

// JSONFromMap 从通用配置创建
func JSONFromMap(config map[string]any) (*JSONReporter, error) {
	cfg := DefaultJSONConfig()
	if v, ok := config["dir"].(string); ok && v != "" {
		cfg.Dir = v
	}
	if v, ok := config["pretty"].(bool); ok {
		cfg.Pretty = v
	}
	return NewJSONReporter(cfg), nil
}

// Name 返回报告器名称
func (r *JSONReporter) Name() string {
	return "json"
}

// Path 返回某次运行的报告文件路径
func (r *JSONReporter) Path(runID string) string {
	return filepath.Join(r.config.Dir, fmt.Sprintf("report_%s.json", runID))
}

// Report 写入报告文件，同一 run_id 重复写入会覆盖
func (r *JSONReporter) Report(_ context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}

	var (
		data []byte
		err  error
	)
	if r.config.Pretty {
		data, err = sonic.ConfigStd.MarshalIndent(report, "", "  ")
	} else {
		data, err = sonic.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("编码报告失败: %w", err)
	}

	if err := os.MkdirAll(r.config.Dir, 0o755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}
	if err := os.WriteFile(r.Path(report.RunID), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

// Close 无需释放资源
func (r *JSONReporter) Close(context.Context) error {
	return nil
}
