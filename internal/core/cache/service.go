package cache

import (
	"context"
	"fmt"

	"recipe-parser/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// Service Redis 緩存服務
// 設定了 redis_addr 才會啟用；多副本部署時共享解析結果用
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建 Redis 緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled || cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis cache is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存的解析結果
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("cache miss")
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return data, nil
}

// Set 寫入解析結果
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉 Redis 連接
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Service) redisKey(key string) string {
	return fmt.Sprintf("parse:result:%s", key)
}
