package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelfinance/internal/domain"
)

func TestNewRedisReportCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisReportCache("not-a-redis-url")
	require.Error(t, err)
}

func TestRedisReportCacheUnreachableIsAnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewRedisReportCacheWithClient(client)
	defer cache.Close()

	_, ok, err := cache.Get(context.Background(), "2026-10-01:2026-10-31")
	assert.Error(t, err)
	assert.False(t, ok, "a failed lookup is never a hit")
}

func TestWindowKey(t *testing.T) {
	w := domain.Window{
		Start: time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2026-10-01:2026-10-31", windowKey(w))
}
