//go:build unix

package limits

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Collect 采样 CPU、内存、文件描述符上限与平均负载
func Collect() (Snapshot, error) {
	s := baseSnapshot()

	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return s, fmt.Errorf("getrlimit: %w", err)
	}
	s.SoftFD = uint64(rl.Cur)
	s.HardFD = uint64(rl.Max)

	if err := collectMemory(&s); err != nil {
		return s, err
	}
	return s, nil
}
