package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

func init() {
	RegisterCache("memory", NewMemoryCache)
}

// MemoryCache 基于go-cache实现的内存缓存
// 单进程部署和测试环境使用
type MemoryCache struct {
	cache      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemoryCache 创建一个新的内存缓存
func NewMemoryCache(config Config) (Cache, error) {
	defaultExpiration := config.DefaultTTL
	if defaultExpiration == 0 {
		defaultExpiration = time.Hour
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &MemoryCache{
		cache:      gocache.New(defaultExpiration, cleanupInterval),
		defaultTTL: defaultExpiration,
	}, nil
}

// Get 获取缓存值
func (c *MemoryCache) Get(key string) (string, bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		return "", false, nil
	}

	str, ok := value.(string)
	if !ok {
		return "", false, nil
	}
	return str, true, nil
}

// Set 设置缓存值
// ttl为0时使用默认过期时间
func (c *MemoryCache) Set(key string, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete 删除缓存键
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear 清空所有缓存
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
