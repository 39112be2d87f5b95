package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func init() {
	RegisterCache("redis", NewRedisCache)
}

// RedisCache 基于Redis实现的缓存
// 多实例部署时共享比较结果和报告状态
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache 创建一个新的Redis缓存
func NewRedisCache(config Config) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	defaultTTL := config.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = time.Hour
	}

	return &RedisCache{
		client:     client,
		defaultTTL: defaultTTL,
	}, nil
}

// Get 获取缓存值
func (c *RedisCache) Get(key string) (string, bool, error) {
	value, err := c.client.Get(context.Background(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 设置缓存值
// ttl为0时使用默认过期时间
func (c *RedisCache) Set(key string, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Delete 删除缓存键
func (c *RedisCache) Delete(key string) error {
	return c.client.Del(context.Background(), key).Err()
}

// Clear 清空当前数据库的所有缓存
func (c *RedisCache) Clear() error {
	return c.client.FlushDB(context.Background()).Err()
}

// Close 关闭Redis连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}
