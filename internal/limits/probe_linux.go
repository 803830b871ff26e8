//go:build linux

package limits

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	meminfoPath = "/proc/meminfo"
	// loadShift sysinfo 平均负载的定点位数
	loadShift = 16
)

func collectMemory(s *Snapshot) error {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return fmt.Errorf("sysinfo: %w", err)
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	s.TotalMem = uint64(info.Totalram) * unit
	s.AvailMem = (uint64(info.Freeram) + uint64(info.Bufferram)) * unit
	for i := range s.LoadAvg {
		s.LoadAvg[i] = float64(info.Loads[i]) / (1 << loadShift)
	}

	// MemAvailable 包含可回收的页缓存，比 sysinfo 的空闲内存更准确
	if data, err := os.ReadFile(meminfoPath); err == nil {
		if avail, ok := parseMemAvailable(data); ok {
			s.AvailMem = avail
		}
	}

	if entries, err := os.ReadDir("/proc/self/fd"); err == nil {
		s.OpenFiles = len(entries)
	}
	return nil
}

// parseMemAvailable 解析 /proc/meminfo 中的 MemAvailable（kB）
func parseMemAvailable(data []byte) (uint64, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := bytes.Fields(scanner.Bytes())
		if len(fields) < 2 || string(fields[0]) != "MemAvailable:" {
			continue
		}
		kb, err := strconv.ParseUint(string(fields[1]), 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}
