// Package history 持久化运行摘要，供回归比较、历史查询和 CSV 导出使用。
//
// 所有实现只追加、不改写；并发追加在实现内部串行化，
// 读取只能观察到完整提交的记录。
package history

import (
	"context"
	"fmt"
	"strings"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/pkg/types"
)

// Store 运行历史存储
type Store interface {
	// Append 追加一条运行摘要
	Append(ctx context.Context, summary types.RunSummary) error
	// Last 返回最近一条记录；没有记录时 ok 为 false
	Last(ctx context.Context) (summary types.RunSummary, ok bool, err error)
	// List 按插入顺序返回全部记录
	List(ctx context.Context) ([]types.RunSummary, error)
	// Close 释放底层连接
	Close() error
}

// Open 根据配置创建历史存储
func Open(ctx context.Context, cfg *config.HistoryConfig) (Store, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch strings.ToLower(cfg.Driver) {
	case "file":
		return NewFileStore(cfg.FilePath), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return OpenRedis(ctx, &cfg.Redis)
	case "mysql", "postgres":
		return OpenSQL(strings.ToLower(cfg.Driver), &cfg.Database)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}
