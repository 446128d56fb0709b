package cache

import (
	"sync"
	"time"

	"github.com/tablevox/agent/pkg/identity"
)

// TokenCache memoizes validated operator tokens. The kiosk UI polls the
// capture state several times a second with the same token, so skipping
// the signature check for a short window keeps the hot path cheap. The
// window is capped by the token's own expiry.
type TokenCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]*cachedToken
}

type cachedToken struct {
	claims     *identity.Claims
	expireTime time.Time
}

// NewTokenCache creates a token cache with the given revalidation window.
func NewTokenCache(ttl time.Duration) *TokenCache {
	c := &TokenCache{
		ttl:   ttl,
		items: make(map[string]*cachedToken),
	}
	go c.cleanupExpired()
	return c
}

// Put caches validated claims for the token string.
func (c *TokenCache) Put(token string, claims *identity.Claims) {
	expire := time.Now().Add(c.ttl)
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(expire) {
		expire = claims.ExpiresAt.Time
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[token] = &cachedToken{claims: claims, expireTime: expire}
}

// Get returns cached claims, or nil when absent or past the window.
func (c *TokenCache) Get(token string) *identity.Claims {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[token]
	if !exists || time.Now().After(item.expireTime) {
		return nil
	}
	return item.claims
}

// cleanupExpired periodically removes expired entries
func (c *TokenCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for token, item := range c.items {
			if now.After(item.expireTime) {
				delete(c.items, token)
			}
		}
		c.mu.Unlock()
	}
}
