package cache

import (
	"context"
	"fmt"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisCache Redis 版快取，多實例部署時共用
type RedisCache struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewRedisCache 建立 Redis 快取並驗證連線
func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: cfg,
	}, nil
}

// Get 查快取，未命中回 ErrCacheMiss
func (s *RedisCache) Get(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			common.LogCacheMiss("redis", key)
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit("redis", key)
	return value, nil
}

// Set 寫入快取，TTL 由設定決定
func (s *RedisCache) Set(ctx context.Context, prompt, value string) error {
	if err := s.client.Set(ctx, cacheKey(prompt), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisCache) Close() error {
	return s.client.Close()
}
