package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportKeyPrefix = "focus:"

// RedisReportCache keeps each day's focus list until that day is over.
type RedisReportCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisReportCache connects to the redis URL and verifies the connection.
func NewRedisReportCache(ctx context.Context, url string, logger *zap.Logger) (*RedisReportCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisReportCacheFromClient(client, logger), nil
}

func NewRedisReportCacheFromClient(client *redis.Client, logger *zap.Logger) *RedisReportCache {
	return &RedisReportCache{client: client, logger: logger}
}

func reportKey(tenantID uuid.UUID, date string) string {
	return reportKeyPrefix + tenantID.String() + ":" + date
}

// Get returns ErrNotFound on a cache miss.
func (c *RedisReportCache) Get(ctx context.Context, tenantID uuid.UUID, date string) (*domain.FocusList, error) {
	data, err := c.client.Get(ctx, reportKey(tenantID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var list domain.FocusList
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Warn("dropping unreadable cached focus list",
			zap.String("tenant_id", tenantID.String()),
			zap.String("date", date),
			zap.Error(err))
		_ = c.client.Del(ctx, reportKey(tenantID, date)).Err()
		return nil, ErrNotFound
	}
	return &list, nil
}

func (c *RedisReportCache) Set(ctx context.Context, list *domain.FocusList, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal focus list: %w", err)
	}
	return c.client.Set(ctx, reportKey(list.TenantID, list.Date), data, ttl).Err()
}

func (c *RedisReportCache) Delete(ctx context.Context, tenantID uuid.UUID, date string) error {
	return c.client.Del(ctx, reportKey(tenantID, date)).Err()
}

func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}
