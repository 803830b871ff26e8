// Package limits 根据本机 CPU、内存和文件描述符上限估算可承载的并发虚拟用户数。
package limits

import (
	"fmt"
	"math"
	"runtime"

	"github.com/duke-git/lancet/v2/mathutil"
)

const (
	// reservedFDs 为进程自身保留的文件描述符
	reservedFDs = 100
	// memPerUser 每个虚拟用户的内存估算
	memPerUser = 2 << 20
	// memPerUserPessimistic 内存瓶颈提示使用的悲观估算
	memPerUserPessimistic = 10 << 20
	// usersPerCPU 每个核心承载的用户数（保守估计）
	usersPerCPU = 200
	// MaxTestDurationMinutes 建议的单次测试时长上限
	MaxTestDurationMinutes = 60
)

// 负载状态
const (
	StatusLow      = "LOW"
	StatusModerate = "MODERATE"
	StatusHigh     = "HIGH"
	StatusCritical = "CRITICAL"
)

// Snapshot 一次系统采样
type Snapshot struct {
	Platform  string
	CPUs      int
	TotalMem  uint64 // bytes
	AvailMem  uint64 // bytes
	SoftFD    uint64
	HardFD    uint64
	OpenFiles int
	LoadAvg   [3]float64
}

// SystemInfo 系统信息
type SystemInfo struct {
	Platform           string  `json:"platform"`
	CPUCores           int     `json:"cpu_cores"`
	TotalMemoryGB      float64 `json:"total_memory_gb"`
	AvailableMemoryGB  float64 `json:"available_memory_gb"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// ResourceLimits 进程资源限制
type ResourceLimits struct {
	MaxFileDescriptors      uint64 `json:"max_file_descriptors"`
	HardFileDescriptorLimit uint64 `json:"hard_file_descriptor_limit"`
	CurrentOpenFiles        int    `json:"current_open_files"`
}

// BreakingPoints 各资源维度的瓶颈提示
type BreakingPoints struct {
	MemoryLimit string `json:"memory_limit"`
	FDLimit     string `json:"fd_limit"`
	CPULimit    string `json:"cpu_limit"`
}

// Capacity 并发能力估算
type Capacity struct {
	MaxConcurrentUsers     int            `json:"max_concurrent_users"`
	RecommendedMaxUsers    int            `json:"recommended_max_users"`
	MaxTestDurationMinutes int            `json:"max_test_duration_minutes"`
	BreakingPoints         BreakingPoints `json:"breaking_points"`
}

// Limits 系统限制分析结果
type Limits struct {
	SystemInfo     SystemInfo        `json:"system_info"`
	ResourceLimits ResourceLimits    `json:"resource_limits"`
	Capacity       Capacity          `json:"estimated_capacity"`
	Degradation    map[string]string `json:"performance_degradation"`
}

// Load 当前系统负载
type Load struct {
	CPUUsagePercent    float64    `json:"cpu_usage_percent"`
	MemoryUsagePercent float64    `json:"memory_usage_percent"`
	AvailableMemoryGB  float64    `json:"available_memory_gb"`
	LoadAverage        [3]float64 `json:"load_average"`
	OpenFiles          int        `json:"open_files"`
	Status             string     `json:"status"`
}

// Analyze 由采样计算系统限制与容量估算
func Analyze(s Snapshot) *Limits {
	capacity := EstimateCapacity(s)
	return &Limits{
		SystemInfo: SystemInfo{
			Platform:           s.Platform,
			CPUCores:           s.CPUs,
			TotalMemoryGB:      gb(s.TotalMem),
			AvailableMemoryGB:  gb(s.AvailMem),
			MemoryUsagePercent: memoryUsagePercent(s),
		},
		ResourceLimits: ResourceLimits{
			MaxFileDescriptors:      s.SoftFD,
			HardFileDescriptorLimit: s.HardFD,
			CurrentOpenFiles:        s.OpenFiles,
		},
		Capacity: capacity,
		Degradation: map[string]string{
			"light_load":    "1-50 users: Optimal performance",
			"moderate_load": "50-200 users: Good performance, some latency",
			"heavy_load":    "200-500 users: Performance degradation begins",
			"critical_load": fmt.Sprintf("500-%d users: System stress, high latency", capacity.MaxConcurrentUsers),
			"failure_point": fmt.Sprintf("%d+ users: System failure likely", capacity.MaxConcurrentUsers),
		},
	}
}

// EstimateCapacity 取文件描述符、内存、CPU 三者中最紧的约束，推荐值留 50% 余量
func EstimateCapacity(s Snapshot) Capacity {
	fdBound := clampInt(s.SoftFD) - reservedFDs
	cpuBound := s.CPUs * usersPerCPU

	maxUsers := min(fdBound, cpuBound)
	if s.TotalMem > 0 {
		maxUsers = min(maxUsers, clampInt(s.AvailMem/memPerUser))
	}
	maxUsers = max(maxUsers, 0)

	return Capacity{
		MaxConcurrentUsers:     maxUsers,
		RecommendedMaxUsers:    maxUsers / 2,
		MaxTestDurationMinutes: MaxTestDurationMinutes,
		BreakingPoints: BreakingPoints{
			MemoryLimit: fmt.Sprintf("~%d users (10MB each)", s.AvailMem/memPerUserPessimistic),
			FDLimit:     fmt.Sprintf("~%d users (1 connection each)", max(fdBound, 0)),
			CPULimit:    fmt.Sprintf("~%d users (%d per core)", cpuBound, usersPerCPU),
		},
	}
}

// CurrentLoad 由采样计算当前负载。CPU 使用率以 1 分钟平均负载除以核数近似。
func CurrentLoad(s Snapshot) *Load {
	cpu := 0.0
	if s.CPUs > 0 {
		cpu = math.Min(s.LoadAvg[0]/float64(s.CPUs)*100, 100)
	}
	cpu = mathutil.RoundToFloat(cpu, 1)
	mem := memoryUsagePercent(s)

	return &Load{
		CPUUsagePercent:    cpu,
		MemoryUsagePercent: mem,
		AvailableMemoryGB:  gb(s.AvailMem),
		LoadAverage:        s.LoadAvg,
		OpenFiles:          s.OpenFiles,
		Status:             LoadStatus(cpu, mem),
	}
}

// LoadStatus 按 CPU 与内存使用率中较高者给出负载等级
func LoadStatus(cpuPercent, memoryPercent float64) string {
	switch {
	case cpuPercent > 90 || memoryPercent > 90:
		return StatusCritical
	case cpuPercent > 70 || memoryPercent > 70:
		return StatusHigh
	case cpuPercent > 50 || memoryPercent > 50:
		return StatusModerate
	default:
		return StatusLow
	}
}

// Current 采样本机并返回限制分析
func Current() (*Limits, error) {
	s, err := Collect()
	if err != nil {
		return nil, err
	}
	return Analyze(s), nil
}

// CurrentStatus 采样本机并返回当前负载
func CurrentStatus() (*Load, error) {
	s, err := Collect()
	if err != nil {
		return nil, err
	}
	return CurrentLoad(s), nil
}

func memoryUsagePercent(s Snapshot) float64 {
	if s.TotalMem == 0 || s.AvailMem > s.TotalMem {
		return 0
	}
	return mathutil.RoundToFloat(float64(s.TotalMem-s.AvailMem)/float64(s.TotalMem)*100, 1)
}

func gb(b uint64) float64 {
	return mathutil.RoundToFloat(float64(b)/(1<<30), 2)
}

func clampInt(v uint64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Platform: runtime.GOOS,
		CPUs:     runtime.NumCPU(),
	}
}
