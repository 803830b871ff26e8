package history

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/loadaudit/internal/config"
)

// Needs a reachable Redis, e.g. LA_TEST_REDIS_ADDR=localhost:6379.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LA_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	key := "loadaudit:test:" + uuid.NewString()
	s, err := OpenRedis(ctx, &config.RedisConfig{Addr: addr, Key: key})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Del(context.Background(), key).Err()
		_ = s.Close()
	})

	_, ok, err := s.Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Append(ctx, summary("aaaa1111", 90)))
	require.NoError(t, s.Append(ctx, summary("bbbb2222", 80)))

	last, ok, err := s.Last(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bbbb2222", last.RunID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa1111", "bbbb2222"}, runIDs(all))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := OpenRedis(context.Background(), &config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
