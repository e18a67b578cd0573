package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/ports"
)

const keyPrefix = "deskpulse:report:"

// Config configures the report cache.
type Config struct {
	Enabled bool
	URL     string
}

// redisReportCache implements ReportCache with Redis.
type redisReportCache struct {
	client *redis.Client
	log    logger.Logger
}

// NewReportCache creates a Redis-backed report cache, or a noop cache when
// caching is disabled.
func NewReportCache(config Config, log logger.Logger) (ports.ReportCache, error) {
	if !config.Enabled {
		log.Info(context.Background(), "Report cache disabled", nil)
		return &noopReportCache{}, nil
	}

	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisReportCache{client: client, log: log}, nil
}

func (c *redisReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached report: %w", err)
	}
	return payload, nil
}

func (c *redisReportCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// noopReportCache misses every read and drops every write.
type noopReportCache struct{}

func (n *noopReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (n *noopReportCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return nil
}
