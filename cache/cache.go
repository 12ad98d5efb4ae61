// Package cache 提供仓储读路径使用的缓存能力。
//
// 包含两层：
//   - Cache：进程内泛型 LRU + TTL 缓存；
//   - IStore：面向装饰器的字节缓存接口，含内存与 Redis 两种实现。
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache 泛型 LRU 缓存，TTL 基于最后访问时间。
// 并发安全。
type Cache[K comparable, V any] struct {
	maxSize int
	ttl     time.Duration

	mu      sync.Mutex
	items   map[K]*entry[K, V]
	lruList *list.List
	stats   Stats
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	accessedAt time.Time
	element    *list.Element
}

// Stats 缓存统计信息。
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expires   int64
	Size      int
}

// New 创建缓存。maxSize <= 0 表示不限容量，ttl <= 0 表示永不过期。
func New[K comparable, V any](maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[K]*entry[K, V]),
		lruList: list.New(),
	}
}

// Get 读取缓存值，命中时刷新 LRU 位置与访问时间。
// Get 会更新链表与统计，因此整体走互斥锁。
func (c *Cache[K, V]) Get(key K) (value V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return value, false
	}
	if c.expired(e) {
		c.remove(e)
		c.stats.Misses++
		c.stats.Expires++
		return value, false
	}

	e.accessedAt = time.Now()
	c.lruList.MoveToFront(e.element)
	c.stats.Hits++
	return e.value, true
}

// Set 写入缓存值，容量满时驱逐最久未使用的条目。
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.accessedAt = time.Now()
		c.lruList.MoveToFront(e.element)
		return
	}

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if back := c.lruList.Back(); back != nil {
			c.remove(back.Value.(*entry[K, V]))
			c.stats.Evictions++
		}
	}

	e := &entry[K, V]{key: key, value: value, accessedAt: time.Now()}
	e.element = c.lruList.PushFront(e)
	c.items[key] = e
}

// Delete 删除条目，返回是否存在。
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Clear 清空全部条目。
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*entry[K, V])
	c.lruList = list.New()
}

// Len 返回当前条目数。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired 主动清理过期条目，返回清理数量。
func (c *Cache[K, V]) CleanExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cleaned := 0
	for _, e := range c.items {
		if c.expired(e) {
			c.remove(e)
			cleaned++
		}
	}
	c.stats.Expires += int64(cleaned)
	return cleaned
}

// GetStats 返回统计信息副本。
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return c.ttl > 0 && time.Since(e.accessedAt) >= c.ttl
}

// remove 需要持锁调用。
func (c *Cache[K, V]) remove(e *entry[K, V]) {
	if e.element != nil {
		c.lruList.Remove(e.element)
	}
	delete(c.items, e.key)
}
