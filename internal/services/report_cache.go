package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/finance"
)

// ReportCache stores finished portfolio reports by window.
type ReportCache interface {
	Get(ctx context.Context, key string) (finance.PortfolioReport, bool, error)
	Set(ctx context.Context, key string, report finance.PortfolioReport, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisReportCache keeps reports as JSON in Redis.
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

// NewRedisReportCache connects to redisURL and checks the connection.
func NewRedisReportCache(redisURL string) (*RedisReportCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	zap.L().Info("redis report cache connected")
	return &RedisReportCache{client: client, prefix: "finance:report:"}, nil
}

// NewRedisReportCacheWithClient wraps an existing client.
func NewRedisReportCacheWithClient(client *redis.Client) *RedisReportCache {
	return &RedisReportCache{client: client, prefix: "finance:report:"}
}

func (c *RedisReportCache) Get(ctx context.Context, key string) (finance.PortfolioReport, bool, error) {
	var report finance.PortfolioReport
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return report, false, nil
	}
	if err != nil {
		return report, false, err
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, false, err
	}
	return report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, report finance.PortfolioReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *RedisReportCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// windowKey is the cache key of a portfolio report.
func windowKey(w domain.Window) string {
	return w.Start.Format("2006-01-02") + ":" + w.End.Format("2006-01-02")
}
