// Package influxdb 以 line protocol 把每次运行的汇总指标写入 InfluxDB v2。
package influxdb

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"yqhp/loadaudit/pkg/types"
)

// Measurement 写入的 measurement 名称
const Measurement = "loadaudit_run"

// Config holds configuration for the InfluxDB reporter.
type Config struct {
	URL          string            `yaml:"url"`
	Token        string            `yaml:"token"`
	Organization string            `yaml:"organization"`
	Bucket       string            `yaml:"bucket"`
	Timeout      time.Duration     `yaml:"timeout"`
	Tags         map[string]string `yaml:"tags,omitempty"`
}

// DefaultConfig returns the default InfluxDB reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:          "http://localhost:8086",
		Organization: "default",
		Bucket:       "loadaudit",
		Timeout:      5 * time.Second,
		Tags:         make(map[string]string),
	}
}

// Reporter writes one point per run.
type Reporter struct {
	config   *Config
	client   *fasthttp.Client
	writeURL string
}

// New creates a new InfluxDB reporter.
func New(config *Config) (*Reporter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" || config.Bucket == "" {
		return nil, fmt.Errorf("influxdb url and bucket are required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	q := url.Values{}
	q.Set("org", config.Organization)
	q.Set("bucket", config.Bucket)
	q.Set("precision", "ns")

	return &Reporter{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
		writeURL: strings.TrimSuffix(config.URL, "/") + "/api/v2/write?" + q.Encode(),
	}, nil
}

// FromMap 从通用配置创建
func FromMap(config map[string]any) (*Reporter, error) {
	cfg := DefaultConfig()
	for key, dst := range map[string]*string{
		"url":          &cfg.URL,
		"token":        &cfg.Token,
		"organization": &cfg.Organization,
		"bucket":       &cfg.Bucket,
	} {
		if v, ok := config[key].(string); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := config["timeout"].(time.Duration); ok {
		cfg.Timeout = v
	}
	switch tags := config["tags"].(type) {
	case map[string]string:
		for k, v := range tags {
			cfg.Tags[k] = v
		}
	case map[string]any:
		for k, v := range tags {
			if s, ok := v.(string); ok {
				cfg.Tags[k] = s
			}
		}
	}
	return New(cfg)
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "influxdb"
}

// WriteURL returns the InfluxDB write endpoint.
func (r *Reporter) WriteURL() string {
	return r.writeURL
}

// Report writes the run as a single line protocol point.
func (r *Reporter) Report(ctx context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.writeURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("text/plain; charset=utf-8")
	if r.config.Token != "" {
		req.Header.Set("Authorization", "Token "+r.config.Token)
	}
	req.SetBodyString(r.Line(report))

	if err := r.client.DoTimeout(req, resp, r.config.Timeout); err != nil {
		return fmt.Errorf("写入 InfluxDB 失败: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("InfluxDB 返回状态码 %d: %s", code, resp.Body())
	}
	return nil
}

// Line 把报告转换为 line protocol
func (r *Reporter) Line(report *types.RunReport) string {
	tags := map[string]string{"run_id": report.RunID, "url": report.URL}
	for k, v := range r.config.Tags {
		tags[k] = v
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(Measurement)
	for _, k := range keys {
		if tags[k] == "" {
			continue
		}
		b.WriteString(",")
		b.WriteString(escapeTag(k))
		b.WriteString("=")
		b.WriteString(escapeTag(tags[k]))
	}

	fields := []string{
		"users=" + strconv.Itoa(report.Users) + "i",
		"duration=" + strconv.Itoa(report.Duration) + "i",
		"total_requests=" + strconv.Itoa(report.TotalRequests) + "i",
		"avg_latency=" + formatFloat(report.AvgLatency),
		"max_latency=" + formatFloat(report.MaxLatency),
		"p95_latency=" + formatFloat(report.P95Latency),
		"p99_latency=" + formatFloat(report.P99Latency),
		"latency_stddev=" + formatFloat(report.StdDevLatency),
		"error_rate=" + formatFloat(report.ErrorRate),
		"throughput=" + formatFloat(report.Throughput),
		"health_score=" + strconv.Itoa(report.HealthScore) + "i",
		"regressions=" + strconv.Itoa(len(report.Regressions)) + "i",
	}
	b.WriteString(" ")
	b.WriteString(strings.Join(fields, ","))

	ts := report.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(" ")
	b.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	return b.String()
}

// Close 关闭空闲连接
func (r *Reporter) Close(context.Context) error {
	r.client.CloseIdleConnections()
	return nil
}

// escapeTag escapes a tag key or value for InfluxDB line protocol.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
