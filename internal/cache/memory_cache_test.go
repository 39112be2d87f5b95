package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCacheSetGet 测试内存缓存的基本读写
func TestMemoryCacheSetGet(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Set("key1", "value1", time.Minute))

	value, found, err := c.Get("key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	// 不存在的键
	_, found, err = c.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestMemoryCacheExpiry 测试过期条目不可见
func TestMemoryCacheExpiry(t *testing.T) {
	c, err := NewMemoryCache(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, c.Set("short", "v", 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, found, err := c.Get("short")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestMemoryCacheDefaultTTL 测试ttl为0时使用默认过期时间
func TestMemoryCacheDefaultTTL(t *testing.T) {
	c, err := NewMemoryCache(Config{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, c.Set("key", "v", 0))

	_, found, err := c.Get("key")
	require.NoError(t, err)
	assert.True(t, found)
}

// TestMemoryCacheDelete 测试删除缓存键
func TestMemoryCacheDelete(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Set("key", "v", time.Minute))
	require.NoError(t, c.Delete("key"))

	_, found, err := c.Get("key")
	require.NoError(t, err)
	assert.False(t, found)

	// 删除不存在的键不报错
	assert.NoError(t, c.Delete("missing"))
}

// TestMemoryCacheClear 测试清空缓存
func TestMemoryCacheClear(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Set("a", "1", time.Minute))
	require.NoError(t, c.Set("b", "2", time.Minute))
	require.NoError(t, c.Clear())

	_, found, _ := c.Get("a")
	assert.False(t, found)
	_, found, _ = c.Get("b")
	assert.False(t, found)
}

// TestNewCacheFallback 测试未注册类型回退到内存缓存
func TestNewCacheFallback(t *testing.T) {
	c, err := NewCache(Config{Type: "unknown", DefaultTTL: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

// TestGenerateCacheKey 测试缓存键生成
func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "lexical", GenerateCacheKey("lexical"))
	assert.Equal(t, "lexical:doc1:doc2:warnings",
		GenerateCacheKey("lexical", "doc1", "doc2", "warnings"))
}
