package jwt

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ReplayChecker reports whether a token id was already presented.
type ReplayChecker interface {
	Seen(ctx context.Context, id string, expiresAt time.Time) bool
}

// LRUReplayChecker remembers up to size token ids for at most ttl.
type LRUReplayChecker struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, time.Time]
}

func NewLRUReplayChecker(size int, ttl time.Duration) *LRUReplayChecker {
	return &LRUReplayChecker{
		cache: expirable.NewLRU[string, time.Time](size, nil, ttl),
	}
}

func (c *LRUReplayChecker) Seen(ctx context.Context, id string, expiresAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if exp, ok := c.cache.Get(id); ok && time.Now().Before(exp) {
		return true
	}
	c.cache.Add(id, expiresAt)
	return false
}
