// Package metrics 把一次运行的全部请求结果归约为 RunMetrics：
// 延迟分布、错误率、吞吐量与健康分。包内函数均为纯函数。
package metrics
