//go:build !unix

package limits

import "errors"

// Collect 当前平台不支持资源采样
func Collect() (Snapshot, error) {
	return baseSnapshot(), errors.New("system limits are not supported on this platform")
}
