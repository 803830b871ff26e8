package reporter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"yqhp/loadaudit/pkg/types"
)

// Manager 持有一组报告器，并发地把同一份报告分发给它们。
type Manager struct {
	registry  *Registry
	reporters []Reporter
	mu        sync.RWMutex
}

// NewManager 创建管理器，registry 为 nil 时使用空注册表
func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry:  registry,
		reporters: make([]Reporter, 0),
	}
}

// AddReporter 添加报告器
func (m *Manager) AddReporter(r Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

// AddReporterFromConfig 通过注册表创建并添加报告器，未启用的配置直接忽略
func (m *Manager) AddReporterFromConfig(config *ReporterConfig) error {
	if config == nil || !config.Enabled {
		return nil
	}

	r, err := m.registry.Create(config.Type, config.Config)
	if err != nil {
		return fmt.Errorf("创建报告器 %s 失败: %w", config.Type, err)
	}
	m.AddReporter(r)
	return nil
}

// Report 并发调用所有报告器；单个报告器失败不影响其他报告器，错误合并后返回。
func (m *Manager) Report(ctx context.Context, report *types.RunReport) error {
	reporters := m.Reporters()
	errs := make([]error, len(reporters))

	// 不使用 WithContext：一个报告器失败不应取消其他报告器。
	var g errgroup.Group
	for i, r := range reporters {
		g.Go(func() error {
			if err := r.Report(ctx, report); err != nil {
				errs[i] = fmt.Errorf("%s: %w", r.Name(), err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	// Wait 只返回第一个错误，这里合并全部失败
	return errors.Join(errs...)
}

// Close 关闭所有报告器并清空列表
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	reporters := m.reporters
	m.reporters = make([]Reporter, 0)
	m.mu.Unlock()

	var errs []error
	for _, r := range reporters {
		if err := r.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Reporters 返回报告器列表的副本
func (m *Manager) Reporters() []Reporter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Reporter, len(m.reporters))
	copy(out, m.reporters)
	return out
}

// Count 返回报告器数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reporters)
}
