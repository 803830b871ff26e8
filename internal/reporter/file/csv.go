package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/pkg/types"
)

// CSVConfig CSV 报告器配置
type CSVConfig struct {
	// Path 结果表路径，不存在时创建并写入表头
	Path string `yaml:"path"`
}

// DefaultCSVConfig 返回默认配置
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{Path: "data/results.csv"}
}

// CSVReporter 每次运行向结果表追加一行，列与历史导出一致
type CSVReporter struct {
	config *CSVConfig
	mu     sync.Mutex
}

// NewCSVReporter 创建 CSV 报告器
func NewCSVReporter(config *CSVConfig) *CSVReporter {
	if config == nil {
		config = DefaultCSVConfig()
	}
	return &CSVReporter{config: config}
}

// CSVFromMap 从通用配置创建
func CSVFromMap(config map[string]any) (*CSVReporter, error) {
	cfg := DefaultCSVConfig()
	if v, ok := config["path"].(string); ok && v != "" {
		cfg.Path = v
	}
	return NewCSVReporter(cfg), nil
}

// Name 返回报告器名称
func (r *CSVReporter) Name() string {
	return "csv"
}

// Report 追加一行结果
func (r *CSVReporter) Report(_ context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.config.Path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	writeHeader := false
	if info, err := os.Stat(r.config.Path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	f, err := os.OpenFile(r.config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("打开结果表失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(history.CSVHeader); err != nil {
			return err
		}
	}
	if err := w.Write(history.CSVRow(report.RunSummary)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Close 无需释放资源
func (r *CSVReporter) Close(context.Context) error {
	return nil
}
