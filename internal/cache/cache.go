// Package cache provides a thread-safe generic map and the rendered-markup cache.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	delete(c.items, key)
	return ok
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns a snapshot of the keys in unspecified order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

var renderedMarkupCache = NewCache[string, string]()

// GetRenderedMarkup returns markup previously rendered from Markdown with the given hash.
func GetRenderedMarkup(contentHash, syntaxTheme string) (string, bool) {
	return renderedMarkupCache.Get(contentHash + ":" + syntaxTheme)
}

func SetRenderedMarkup(contentHash, syntaxTheme, markup string) {
	renderedMarkupCache.Set(contentHash+":"+syntaxTheme, markup)
}

func ClearRenderedMarkupCache() {
	renderedMarkupCache.Clear()
}
