// Package cache provides the key-value cache backing the conversation window.
// The interface mirrors an external store (Redis-shaped) so the in-process
// implementation can be swapped for a shared one in multi-instance
// deployments; consumers must tolerate a cache that is unavailable.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache is a byte-value cache with per-entry TTL. Implementations are
// best-effort: Get returning false may mean "missing" or "unavailable".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// Config holds settings for the in-memory cache.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
}

// DefaultConfig returns the default in-memory cache settings.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      time.Hour,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
	}
}

// MemoryCache is an in-process LRU cache with TTL support.
type MemoryCache struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	cache      map[string]*entry
	order      *list.List // front = most recently used

	done chan struct{}
	wg   sync.WaitGroup
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// New creates an in-memory cache and starts its cleanup loop.
func New(config Config) *MemoryCache {
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = time.Hour
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	c := &MemoryCache{
		capacity:   config.MaxItems,
		defaultTTL: config.DefaultTTL,
		cache:      make(map[string]*entry),
		order:      list.New(),
		done:       make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(config.CleanupInterval)
	return c
}

// Get retrieves a value. Expired entries are treated as missing.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// SetWithTTL stores a value, resetting its expiry to now+ttl.
func (c *MemoryCache) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	e := &entry{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	e.element = c.order.PushFront(e)
	c.cache[key] = e

	for len(c.cache) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeEntry(oldest.Value.(*entry))
	}
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[key]; ok {
		c.removeEntry(e)
	}
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() error {
	close(c.done)
	c.wg.Wait()
	return nil
}

func (c *MemoryCache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for _, e := range c.cache {
				if now.After(e.expiresAt) {
					c.removeEntry(e)
				}
			}
			c.mu.Unlock()
		}
	}
}
