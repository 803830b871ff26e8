package reporter

import (
	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/internal/reporter/console"
	"yqhp/loadaudit/internal/reporter/file"
	"yqhp/loadaudit/internal/reporter/influxdb"
	"yqhp/loadaudit/internal/reporter/prometheus"
	"yqhp/loadaudit/internal/reporter/webhook"
)

// RegisterBuiltinReporters 注册所有内置报告器
func RegisterBuiltinReporters(registry *Registry) error {
	builtin := map[ReporterType]ReporterFactory{
		ReporterTypeConsole: func(c map[string]any) (Reporter, error) {
			return console.FromMap(c)
		},
		ReporterTypeJSON: func(c map[string]any) (Reporter, error) {
			return file.JSONFromMap(c)
		},
		ReporterTypeCSV: func(c map[string]any) (Reporter, error) {
			return file.CSVFromMap(c)
		},
		ReporterTypePrometheus: func(c map[string]any) (Reporter, error) {
			return prometheus.FromMap(c)
		},
		ReporterTypeWebhook: func(c map[string]any) (Reporter, error) {
			return webhook.FromMap(c)
		},
		ReporterTypeInfluxDB: func(c map[string]any) (Reporter, error) {
			return influxdb.FromMap(c)
		},
	}

	for t, f := range builtin {
		if err := registry.Register(t, f); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry 创建已注册全部内置报告器的注册表
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := RegisterBuiltinReporters(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// ConfigsFrom 将配置文件中的 reporters 段转换为报告器配置列表
func ConfigsFrom(cfg *config.ReportersConfig) []*ReporterConfig {
	return []*ReporterConfig{
		{Type: ReporterTypeConsole, Enabled: cfg.Console.Enabled},
		{Type: ReporterTypeJSON, Enabled: cfg.JSON.Enabled, Config: map[string]any{
			"dir": cfg.JSON.Dir,
		}},
		{Type: ReporterTypeCSV, Enabled: cfg.CSV.Enabled, Config: map[string]any{
			"path": cfg.CSV.Path,
		}},
		{Type: ReporterTypePrometheus, Enabled: cfg.Prometheus.Enabled, Config: map[string]any{
			"push_gateway_url": cfg.Prometheus.PushURL,
			"job_name":         cfg.Prometheus.Job,
		}},
		{Type: ReporterTypeWebhook, Enabled: cfg.Webhook.Enabled, Config: map[string]any{
			"url":     cfg.Webhook.URL,
			"headers": cfg.Webhook.Headers,
			"timeout": cfg.Webhook.Timeout,
		}},
		{Type: ReporterTypeInfluxDB, Enabled: cfg.InfluxDB.Enabled, Config: map[string]any{
			"url":          cfg.InfluxDB.URL,
			"token":        cfg.InfluxDB.Token,
			"organization": cfg.InfluxDB.Organization,
			"bucket":       cfg.InfluxDB.Bucket,
			"timeout":      cfg.InfluxDB.Timeout,
			"tags":         cfg.InfluxDB.Tags,
		}},
	}
}

// NewManagerFromConfig 按配置创建管理器，只包含已启用的报告器
func NewManagerFromConfig(cfg *config.ReportersConfig) (*Manager, error) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	m := NewManager(registry)
	if cfg == nil {
		return m, nil
	}
	for _, rc := range ConfigsFrom(cfg) {
		if err := m.AddReporterFromConfig(rc); err != nil {
			return nil, err
		}
	}
	return m, nil
}
