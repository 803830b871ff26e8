// Package prometheus 将运行指标推送到 Prometheus Push Gateway，或导出到进程内的注册表。
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"yqhp/loadaudit/pkg/types"
)

const namespace = "loadaudit"

// Config Push Gateway 报告器配置
type Config struct {
	// PushGatewayURL Push Gateway 地址
	PushGatewayURL string `yaml:"push_gateway_url"`
	// JobName 推送使用的 job 名称
	JobName string `yaml:"job_name"`
	// Timeout 单次推送超时
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		PushGatewayURL: "http://localhost:9091",
		JobName:        "loadaudit",
		Timeout:        5 * time.Second,
	}
}

// Reporter 推送报告器。每次运行以 run_id 作为分组标签推送一组 gauge。
type Reporter struct {
	config     *Config
	httpClient *http.Client
}

// New 创建推送报告器
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reporter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// FromMap 从通用配置创建
func FromMap(config map[string]any) (*Reporter, error) {
	cfg := DefaultConfig()
	if v, ok := config["push_gateway_url"].(string); ok && v != "" {
		cfg.PushGatewayURL = v
	}
	if v, ok := config["job_name"].(string); ok && v != "" {
		cfg.JobName = v
	}
	if v, ok := config["timeout"].(string); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	return New(cfg), nil
}

// Name 返回报告器名称
func (r *Reporter) Name() string {
	return "prometheus"
}

// Report 推送本次运行的指标，替换同一分组下的旧值
func (r *Reporter) Report(ctx context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}

	registry := prometheus.NewRegistry()
	gauges, err := newRunGauges(registry, "")
	if err != nil {
		return err
	}
	gauges.set(report)

	err = push.New(r.config.PushGatewayURL, r.config.JobName).
		Client(r.httpClient).
		Gatherer(registry).
		Grouping("run_id", report.RunID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push to gateway: %w", err)
	}
	return nil
}

// Close 无需释放资源
func (r *Reporter) Close(context.Context) error {
	return nil
}

// runGauges 单次运行的一组指标
type runGauges struct {
	requests    prometheus.Gauge
	latency     *prometheus.GaugeVec
	errorRate   prometheus.Gauge
	throughput  prometheus.Gauge
	health      prometheus.Gauge
	regressions prometheus.Gauge
}

// newRunGauges 创建并注册一组运行指标，prefix 追加在命名空间之后
func newRunGauges(reg prometheus.Registerer, prefix string) (*runGauges, error) {
	g := &runGauges{
		requests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "requests_total",
			Help: "Total requests issued during the run.",
		}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "latency_seconds",
			Help: "Latency statistics of the run.",
		}, []string{"stat"}),
		errorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "error_rate",
			Help: "Fraction of non-2xx outcomes.",
		}),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "throughput",
			Help: "Successful requests divided by the maximum observed latency.",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "health_score",
			Help: "Health score between 0 and 100.",
		}),
		regressions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: prefix + "regressions",
			Help: "Number of regression warnings against the previous run.",
		}),
	}
	for _, c := range []prometheus.Collector{g.requests, g.latency, g.errorRate, g.throughput, g.health, g.regressions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *runGauges) set(report *types.RunReport) {
	g.requests.Set(float64(report.TotalRequests))
	g.latency.WithLabelValues("avg").Set(report.AvgLatency)
	g.latency.WithLabelValues("max").Set(report.MaxLatency)
	g.latency.WithLabelValues("p95").Set(report.P95Latency)
	g.latency.WithLabelValues("p99").Set(report.P99Latency)
	g.latency.WithLabelValues("stddev").Set(report.StdDevLatency)
	g.errorRate.Set(report.ErrorRate)
	g.throughput.Set(report.Throughput)
	g.health.Set(float64(report.HealthScore))
	g.regressions.Set(float64(len(report.Regressions)))
}
