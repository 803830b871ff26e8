package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// DefaultRedisKey 默认的历史列表 key
const DefaultRedisKey = "loadaudit:runs"

// RedisStore 将运行摘要以 JSON 追加到 Redis 列表（RPUSH），列表尾部即最近一次运行。
// RPUSH 为原子操作，多进程并发写入不会交错。
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore 使用已有客户端创建存储
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// OpenRedis 连接 Redis 并校验连通性
func OpenRedis(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.Key), nil
}

func (s *RedisStore) Append(ctx context.Context, summary types.RunSummary) error {
	data, err := sonic.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Last(ctx context.Context) (types.RunSummary, bool, error) {
	raw, err := s.client.LIndex(ctx, s.key, -1).Result()
	if errors.Is(err, redis.Nil) {
		return types.RunSummary{}, false, nil
	}
	if err != nil {
		return types.RunSummary{}, false, fmt.Errorf("lindex %s: %w", s.key, err)
	}

	var rec types.RunSummary
	if err := sonic.UnmarshalString(raw, &rec); err != nil {
		return types.RunSummary{}, false, fmt.Errorf("decode run summary: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) List(ctx context.Context) ([]types.RunSummary, error) {
	raws, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", s.key, err)
	}

	records := make([]types.RunSummary, 0, len(raws))
	for i, raw := range raws {
		var rec types.RunSummary
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			logger.Warn("skipping malformed history record",
				zap.String("key", s.key), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
