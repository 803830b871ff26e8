// Package webhook 将运行报告以 JSON POST 到指定 URL。
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"yqhp/loadaudit/pkg/types"
)

// Config Webhook 报告器配置
type Config struct {
	URL           string            `yaml:"url"`
	Method        string            `yaml:"method"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	Timeout       time.Duration     `yaml:"timeout"`
	RetryAttempts int               `yaml:"retry_attempts"`
	RetryDelay    time.Duration     `yaml:"retry_delay"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Method:        fasthttp.MethodPost,
		Headers:       make(map[string]string),
		Timeout:       10 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Payload Webhook 请求体
type Payload struct {
	Event     string           `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Report    *types.RunReport `json:"report"`
}

// Reporter Webhook 报告器
type Reporter struct {
	config *Config
	client *fasthttp.Client
}

// New 创建 Webhook 报告器，URL 为空时返回错误
func New(config *Config) (*Reporter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if config.Method == "" {
		config.Method = fasthttp.MethodPost
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Reporter{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}, nil
}

// FromMap 从通用配置创建
func FromMap(config map[string]any) (*Reporter, error) {
	cfg := DefaultConfig()
	if v, ok := config["url"].(string); ok {
		cfg.URL = v
	}
	if v, ok := config["method"].(string); ok && v != "" {
		cfg.Method = v
	}
	switch headers := config["headers"].(type) {
	case map[string]string:
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	case map[string]any:
		for k, v := range headers {
			if s, ok := v.(string); ok {
				cfg.Headers[k] = s
			}
		}
	}
	if v, ok := config["timeout"].(time.Duration); ok {
		cfg.Timeout = v
	}
	if v, ok := config["retry_attempts"].(int); ok {
		cfg.RetryAttempts = v
	}
	if v, ok := config["retry_delay"].(time.Duration); ok {
		cfg.RetryDelay = v
	}
	return New(cfg)
}

// Name 返回报告器名称
func (r *Reporter) Name() string {
	return "webhook"
}

// Report 发送报告，失败时按配置重试
func (r *Reporter) Report(ctx context.Context, report *types.RunReport) error {
	if report == nil {
		return nil
	}

	body, err := sonic.Marshal(&Payload{
		Event:     "run.completed",
		Timestamp: time.Now().UTC(),
		Report:    report,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= r.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay):
			}
		}
		if lastErr = r.send(body); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", r.config.RetryAttempts+1, lastErr)
}

func (r *Reporter) send(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.config.URL)
	req.Header.SetMethod(r.config.Method)
	req.Header.SetContentType("application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}
	req.SetBody(body)

	if err := r.client.DoTimeout(req, resp, r.config.Timeout); err != nil {
		return err
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("webhook returned status %d", code)
	}
	return nil
}

// Close 关闭空闲连接
func (r *Reporter) Close(context.Context) error {
	r.client.CloseIdleConnections()
	return nil
}
