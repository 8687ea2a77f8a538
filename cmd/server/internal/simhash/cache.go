package simhash

import (
	"container/list"
	"crypto/sha256"
	"sync"
)

// DefaultCacheCapacity 默认缓存的指纹数量
const DefaultCacheCapacity = 256

// FingerprintCache LRU 缓存内容的 SimHash 指纹，以内容的 sha256 为键
type FingerprintCache struct {
	mu       sync.Mutex
	capacity int
	cache    map[[sha256.Size]byte]*list.Element
	lru      *list.List
}

type cacheEntry struct {
	key         [sha256.Size]byte
	fingerprint uint64
}

// NewFingerprintCache 创建指纹缓存，capacity < 1 时使用默认容量
func NewFingerprintCache(capacity int) *FingerprintCache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &FingerprintCache{
		capacity: capacity,
		cache:    make(map[[sha256.Size]byte]*list.Element),
		lru:      list.New(),
	}
}

// Fingerprint 返回内容的指纹，未命中时计算并缓存
func (c *FingerprintCache) Fingerprint(markup string) uint64 {
	key := sha256.Sum256([]byte(markup))

	c.mu.Lock()
	if elem, ok := c.cache[key]; ok {
		// 移到链表头部（最近使用）
		c.lru.MoveToFront(elem)
		fp := elem.Value.(*cacheEntry).fingerprint
		c.mu.Unlock()
		return fp
	}
	c.mu.Unlock()

	fp := CalculateSimHash(markup)

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return fp
	}
	// 超出容量时删除最久未使用的条目
	if c.lru.Len() >= c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	c.cache[key] = c.lru.PushFront(&cacheEntry{key: key, fingerprint: fp})
	return fp
}

// Len 返回当前缓存条目数
func (c *FingerprintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Compare 与包级 Compare 相同，但复用缓存的指纹
func (c *FingerprintCache) Compare(original, current string) Similarity {
	return similarity(HammingDistance(c.Fingerprint(original), c.Fingerprint(current)))
}
