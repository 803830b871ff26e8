// Package reporter 将运行报告分发给控制台、文件、Prometheus、InfluxDB 和 Webhook 等输出端。
//
// 各输出端实现位于子包中，子包只依赖 pkg/types；register.go 负责把它们注册到 Registry。
package reporter
