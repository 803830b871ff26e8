//go:build unix && !linux

package limits

// 非 Linux 平台不采集内存与负载，容量估算只由文件描述符和 CPU 决定
func collectMemory(*Snapshot) error {
	return nil
}
