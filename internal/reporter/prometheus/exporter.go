package prometheus

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"yqhp/loadaudit/pkg/types"
)

// Exporter 把最近一次运行的指标写入进程内注册表，供 /metrics 抓取。
type Exporter struct {
	gauges    *runGauges
	runs      prometheus.Counter
	regressed prometheus.Counter
}

// NewExporter 在 reg 上注册指标
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed load test runs.",
		}),
		regressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_with_regressions_total",
			Help: "Completed runs that reported at least one regression.",
		}),
	}
	if err := reg.Register(e.runs); err != nil {
		return nil, err
	}
	if err := reg.Register(e.regressed); err != nil {
		return nil, err
	}

	gauges, err := newRunGauges(reg, "last_run_")
	if err != nil {
		return nil, err
	}
	e.gauges = gauges
	return e, nil
}

// Name 返回报告器名称
func (e *Exporter) Name() string {
	return "metrics"
}

// Report 更新最近一次运行的 gauge 并累加计数
func (e *Exporter) Report(_ context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}
	e.gauges.set(report)
	e.runs.Inc()
	if len(report.Regressions) > 0 {
		e.regressed.Inc()
	}
	return nil
}

// Close 无需释放资源
func (e *Exporter) Close(context.Context) error {
	return nil
}
