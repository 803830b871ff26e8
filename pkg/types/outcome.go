package types

import "time"

// ChaosFailure 是混沌模式注入的合成失败所携带的错误标记。
const ChaosFailure = "ChaosFailure"

// RequestOutcome 表示一次请求尝试的结果。
// 创建后不可修改；由产生它的虚拟用户持有，直到交给编排器。
type RequestOutcome struct {
	// StatusCode 是 HTTP 状态码，未收到响应时为 0。
	StatusCode int `json:"status"`

	// Latency 是从发送到结束的耗时（秒），合成失败包含注入的延迟。
	Latency float64 `json:"latency"`

	// Error 在传输失败或混沌失败时填充，收到 HTTP 响应时为空。
	Error string `json:"error,omitempty"`

	// Timestamp 是结果产生的时间（UTC）。
	Timestamp time.Time `json:"timestamp"`
}

// IsSuccess 判断状态码是否位于 [200, 300)。
func (o RequestOutcome) IsSuccess() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// HasError 判断是否为传输失败或合成失败。
func (o RequestOutcome) HasError() bool {
	return o.Error != ""
}

// IsChaos 判断是否为混沌模式注入的失败。
func (o RequestOutcome) IsChaos() bool {
	return o.Error == ChaosFailure
}
