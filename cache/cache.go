package cache

import (
	"sync"
	"time"
)

// DefaultTTL adalah Time-To-Live default untuk item cache.
const DefaultTTL = 5 * time.Minute

// DefaultCleanupInterval adalah jeda antar pembersihan item kedaluwarsa.
const DefaultCleanupInterval = time.Minute

type CacheItem struct {
	Value      interface{}
	Expiration int64 // UnixNano, 0 = tidak pernah kedaluwarsa
}

func (item *CacheItem) expired(now int64) bool {
	return item.Expiration > 0 && now > item.Expiration
}

// Cache adalah map TTL yang aman untuk banyak goroutine. Dipakai chain untuk
// menyimpan blok yang baru dibaca dari database.
type Cache struct {
	items    map[string]*CacheItem
	maxItems int
	mutex    sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCache membuat cache dengan goroutine cleanup. maxItems <= 0 berarti
// tanpa batas jumlah item.
func NewCache(maxItems int, cleanupInterval time.Duration) *Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	c := &Cache{
		items:    make(map[string]*CacheItem),
		maxItems: maxItems,
		stopCh:   make(chan struct{}),
	}
	go c.cleanup(cleanupInterval)
	return c
}

// Set menyimpan value. duration <= 0 berarti item tidak kedaluwarsa.
// Jika cache penuh, item kedaluwarsa dibuang dulu, lalu satu item sembarang.
func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expiration int64
	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictLocked()
	}
	c.items[key] = &CacheItem{
		Value:      value,
		Expiration: expiration,
	}
}

func (c *Cache) evictLocked() {
	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
	if len(c.items) < c.maxItems {
		return
	}
	for key := range c.items {
		delete(c.items, key)
		return
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if item.expired(time.Now().UnixNano()) {
		c.mutex.Lock()
		// hapus hanya jika item belum diganti oleh Set lain
		if current, stillExists := c.items[key]; stillExists && current == item {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*CacheItem)
}

func (c *Cache) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Stop menghentikan goroutine cleanup. Aman dipanggil lebih dari sekali.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now().UnixNano()
			for key, item := range c.items {
				if item.expired(now) {
					delete(c.items, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
