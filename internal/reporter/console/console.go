// Package console 以文本表格输出运行报告，并基于 HDR 直方图打印延迟分布。
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/loadaudit/pkg/types"
)

// 直方图范围：1µs 到 1h，3 位有效数字
const (
	histMinMicros = 1
	histMaxMicros = 3600 * 1_000_000
	histSigFigs   = 3
)

var distributionQuantiles = []float64{50, 75, 90, 95, 99, 99.9}

// Config 控制台报告器配置
type Config struct {
	// ShowDistribution 是否打印延迟分布
	ShowDistribution bool `yaml:"show_distribution"`
	// Writer 输出目标，默认 os.Stdout
	Writer io.Writer `yaml:"-"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ShowDistribution: true,
		Writer:           os.Stdout,
	}
}

// Reporter 控制台报告器
type Reporter struct {
	config *Config
	mu     sync.Mutex
}

// New 创建控制台报告器
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &Reporter{config: config}
}

// FromMap 从通用配置创建
func FromMap(config map[string]any) (*Reporter, error) {
	cfg := DefaultConfig()
	if v, ok := config["show_distribution"].(bool); ok {
		cfg.ShowDistribution = v
	}
	if w, ok := config["writer"].(io.Writer); ok {
		cfg.Writer = w
	}
	return New(cfg), nil
}

// Name 返回报告器名称
func (r *Reporter) Name() string {
	return "console"
}

// Report 打印报告
func (r *Reporter) Report(_ context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}

	var sb strings.Builder
	writeSummary(&sb, report)
	if r.config.ShowDistribution && len(report.Latencies) > 0 {
		writeDistribution(&sb, report.Latencies)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.config.Writer, sb.String())
	return err
}

// Close 无需释放资源
func (r *Reporter) Close(context.Context) error {
	return nil
}

func writeSummary(sb *strings.Builder, report *types.RunReport) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(sb, "\n%s\n", line)
	fmt.Fprintf(sb, "  LoadAudit run %s\n", report.RunID)
	fmt.Fprintf(sb, "  target: %s  users: %d  duration: %ds\n", report.URL, report.Users, report.Duration)
	fmt.Fprintf(sb, "%s\n", line)

	tw := tabwriter.NewWriter(sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  total requests\t%d\n", report.TotalRequests)
	fmt.Fprintf(tw, "  avg latency\t%.4fs\n", report.AvgLatency)
	fmt.Fprintf(tw, "  max latency\t%.4fs\n", report.MaxLatency)
	fmt.Fprintf(tw, "  p95 latency\t%.4fs\n", report.P95Latency)
	fmt.Fprintf(tw, "  p99 latency\t%.4fs\n", report.P99Latency)
	fmt.Fprintf(tw, "  latency stddev\t%.4fs\n", report.StdDevLatency)
	fmt.Fprintf(tw, "  error rate\t%.2f%%\n", report.ErrorRate*100)
	fmt.Fprintf(tw, "  throughput\t%.4f\n", report.Throughput)
	fmt.Fprintf(tw, "  health score\t%d/100\n", report.HealthScore)
	_ = tw.Flush()

	if len(report.Diagnosis) > 0 {
		sb.WriteString("\n  Diagnosis:\n")
		for _, d := range report.Diagnosis {
			fmt.Fprintf(sb, "    - %s\n", d)
		}
	}
	if len(report.Regressions) > 0 {
		sb.WriteString("\n  Regressions:\n")
		for _, msg := range report.Regressions {
			fmt.Fprintf(sb, "    ! %s\n", msg)
		}
	}
}

func writeDistribution(sb *strings.Builder, latencies []float64) {
	h := NewHistogram(latencies)

	sb.WriteString("\n  Latency distribution:\n")
	tw := tabwriter.NewWriter(sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, q := range distributionQuantiles {
		fmt.Fprintf(tw, "    p%g\t%.4fs\t\n", q, micros(h.ValueAtQuantile(q)))
	}
	fmt.Fprintf(tw, "    mean\t%.4fs\t\n", h.Mean()/1e6)
	_ = tw.Flush()
}

// NewHistogram 将延迟（秒）记录到微秒精度的 HDR 直方图，超出范围的值截断到边界
func NewHistogram(latencies []float64) *hdrhistogram.Histogram {
	h := hdrhistogram.New(histMinMicros, histMaxMicros, histSigFigs)
	for _, l := range latencies {
		v := int64(l * 1e6)
		if v < histMinMicros {
			v = histMinMicros
		}
		if v > histMaxMicros {
			v = histMaxMicros
		}
		_ = h.RecordValue(v)
	}
	return h
}

func micros(v int64) float64 {
	return float64(v) / 1e6
}
