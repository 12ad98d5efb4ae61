package cache

import (
	"context"
	"time"
)

// IStore 面向仓储装饰器的字节缓存接口。
// 实现必须并发安全；Get 的第二个返回值表示是否命中。
type IStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStore 基于进程内 Cache 的 IStore 实现。
// TTL 以构造时的值为准，Set 的 ttl 参数仅在 Redis 等远端实现中逐键生效。
type MemoryStore struct {
	cache *Cache[string, []byte]
}

// NewMemoryStore 创建内存缓存存储。
func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: New[string, []byte](maxSize, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := s.cache.Get(key)
	return value, found, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.cache.Set(key, value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}

// GetStats 暴露底层缓存统计。
func (s *MemoryStore) GetStats() Stats { return s.cache.GetStats() }
