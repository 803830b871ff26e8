package loadtest

import (
	"crypto/tls"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"yqhp/loadaudit/pkg/types"
)

const (
	// DefaultRequestTimeout bounds every single request, independent of the test duration.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultMaxConnsPerHost is the connection pool size shared by all virtual users.
	DefaultMaxConnsPerHost = 1000
)

// Client is the subset of *fasthttp.Client used by virtual users.
type Client interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// ClientConfig configures the shared HTTP client.
type ClientConfig struct {
	MaxConnsPerHost    int
	InsecureSkipVerify bool
	// RequestTimeout 同时作为连接池耗尽时的排队等待上限。
	RequestTimeout time.Duration
}

// NewClient builds the fasthttp client shared by every virtual user of a run.
func NewClient(cfg ClientConfig) *fasthttp.Client {
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = DefaultMaxConnsPerHost
	}
	wait := cfg.RequestTimeout
	if wait <= 0 {
		wait = DefaultRequestTimeout
	}
	return &fasthttp.Client{
		Name:                   "loadaudit",
		MaxConnsPerHost:        maxConns,
		MaxConnWaitTimeout:     wait,
		MaxIdleConnDuration:    90 * time.Second,
		TLSConfig:              &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec
		DisablePathNormalizing: true,
	}
}

// RequestTemplate is the immutable request every iteration of a run sends.
// The payload is encoded once here instead of on every iteration.
type RequestTemplate struct {
	URI     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// NewRequestTemplate encodes the request configuration.
func NewRequestTemplate(req *types.LoadTestRequest) (*RequestTemplate, error) {
	tmpl := &RequestTemplate{
		URI:     req.TargetURL,
		Method:  req.Method,
		Headers: req.Headers,
	}
	if tmpl.Method == "" {
		tmpl.Method = types.DefaultMethod
	}
	if len(req.Payload) > 0 {
		body, err := sonic.Marshal(req.Payload)
		if err != nil {
			return nil, ErrInvalidPayload
		}
		tmpl.Body = body
	}
	return tmpl, nil
}

// apply writes the template into a pooled fasthttp request.
func (t *RequestTemplate) apply(req *fasthttp.Request) {
	req.SetRequestURI(t.URI)
	req.Header.SetMethod(t.Method)
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	if len(t.Body) > 0 {
		if len(req.Header.ContentType()) == 0 {
			req.Header.SetContentType("application/json")
		}
		req.SetBodyRaw(t.Body)
	}
}
