// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/config"
)

func unreachableRedis(t *testing.T) *Redis {
	t.Helper()
	r := &Redis{Client: redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedisPingWrapsFailure(t *testing.T) {
	err := unreachableRedis(t).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestRedisPoolStatsIsJSONView(t *testing.T) {
	r := unreachableRedis(t)
	_ = r.Ping(context.Background())

	stats := r.PoolStats()
	require.NotNil(t, stats)
	assert.Zero(t, stats.IdleConns)
	assert.Zero(t, stats.StaleConns)
}

func TestRedisOptionsFromConfig(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{
		URL:          "redis://localhost:6379/2",
		PoolSize:     7,
		MinIdleConns: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)

	_, err = redisOptions(config.RedisConfig{URL: "http://nope"})
	assert.ErrorContains(t, err, "parse redis url")
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{URL: "redis://127.0.0.1:1/0?dial_timeout=50ms&max_retries=-1"})
	assert.ErrorContains(t, err, "ping redis")
}
