// Package cache 提供 Redis 缓存功能
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// CacheKey 常用缓存键前缀
const (
	KeyPrefixCatalog   = "kb:"
	KeyPrefixVersion   = "version:"
	KeyPrefixRateLimit = "ratelimit:"
)

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return rdb, nil
}

// Store JSON 缓存存储
//
// client 为 nil 时所有读取都未命中、写入为空操作，调用方无需区分是否启用 Redis
type Store struct {
	client *redis.Client
}

// NewStore 创建缓存存储
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled 是否连接了 Redis
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Set 设置缓存
func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，未命中返回 ErrMiss
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.Enabled() {
		return ErrMiss
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Version 读取命名空间版本号，不存在时为 0
func (s *Store) Version(ctx context.Context, namespace string) int64 {
	if !s.Enabled() {
		return 0
	}
	v, err := s.client.Get(ctx, KeyPrefixVersion+namespace).Result()
	if err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// BumpVersion 递增命名空间版本号，使该命名空间下所有旧键失效
func (s *Store) BumpVersion(ctx context.Context, namespace string) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Incr(ctx, KeyPrefixVersion+namespace).Err()
}

// BuildKey 构建缓存键
func BuildKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}
