package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/models"
)

const redisKeyPrefix = "videotube:channel-stats:"

// RedisStatsCache shares channel statistics between API replicas through Redis.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache connects to the configured Redis instance.
func NewRedisStatsCache(ctx context.Context, cfg config.CacheConfig) (*RedisStatsCache, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	ttl := cfg.StatsTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStatsCache{client: client, ttl: ttl}, nil
}

func (c *RedisStatsCache) Get(ctx context.Context, channelID string) (models.ChannelStats, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+channelID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ChannelStats{}, false, nil
	}
	if err != nil {
		return models.ChannelStats{}, false, fmt.Errorf("redis get: %w", err)
	}

	var stats models.ChannelStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return models.ChannelStats{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, channelID string, stats models.ChannelStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+channelID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
