package types

import (
	"strings"
	"time"
)

// DefaultMethod 是未指定方法时使用的 HTTP 方法。
const DefaultMethod = "GET"

// LoadTestRequest 是一次压测的调用配置。
type LoadTestRequest struct {
	TargetURL string            `json:"target_url" yaml:"target_url"`
	NumUsers  int               `json:"num_users" yaml:"num_users"`
	Duration  int               `json:"duration" yaml:"duration"` // 秒
	Method    string            `json:"method" yaml:"method"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Payload   map[string]any    `json:"payload,omitempty" yaml:"payload,omitempty"`
	ChaosMode bool              `json:"chaos_mode" yaml:"chaos_mode"`
}

// Normalize 填充默认值并规范化方法名。
func (r *LoadTestRequest) Normalize() {
	r.TargetURL = strings.TrimSpace(r.TargetURL)
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = DefaultMethod
	}
}

// DurationValue 返回 time.Duration 形式的测试时长。
func (r *LoadTestRequest) DurationValue() time.Duration {
	return time.Duration(r.Duration) * time.Second
}
