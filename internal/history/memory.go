package history

import (
	"context"
	"slices"
	"sync"

	"yqhp/loadaudit/pkg/types"
)

// MemoryStore 进程内历史存储，进程退出即丢失
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.RunSummary
	closed  bool
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, summary types.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	summary.Diagnosis = slices.Clone(summary.Diagnosis)
	s.records = append(s.records, summary)
	return nil
}

func (s *MemoryStore) Last(_ context.Context) (types.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.RunSummary{}, false, ErrStoreClosed
	}
	if len(s.records) == 0 {
		return types.RunSummary{}, false, nil
	}
	return s.records[len(s.records)-1], true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return slices.Clone(s.records), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
