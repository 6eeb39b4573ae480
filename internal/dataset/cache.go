package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// ResponseCache memoizes simulation responses by request hash. Repeat
// requests replay the stored response instead of re-running the cell;
// same-seed runs are deterministic, so a replay is exact.
//
// A nil *ResponseCache is valid and caches nothing, so callers never
// need an enabled check.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
}

// NewResponseCache builds a cache with the given TTL and starts its
// cleanup loop.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	c := &ResponseCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
	}
	go c.cleanup()
	return c
}

// CacheFromEnv builds the cache the environment asks for: nil unless
// ENABLE_RESPONSE_CACHE=true, TTL from RESPONSE_CACHE_TTL (default 1h).
func CacheFromEnv() *ResponseCache {
	if os.Getenv("ENABLE_RESPONSE_CACHE") != "true" {
		return nil
	}

	ttl := 1 * time.Hour
	if s := os.Getenv("RESPONSE_CACHE_TTL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			ttl = parsed
		}
	}
	return NewResponseCache(ttl)
}

// Get returns the cached value for key if present and not expired.
func (c *ResponseCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value under key for the cache's TTL.
func (c *ResponseCache) Set(key string, value any) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*cacheEntry)
}

// cleanup periodically drops expired entries.
func (c *ResponseCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.store {
			if now.After(entry.expiresAt) {
				delete(c.store, key)
			}
		}
		c.mu.Unlock()
	}
}

// CacheKey hashes raw request bytes into a compact deterministic key.
func CacheKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
