package imagebot

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache abstracts the per-query result store (in-memory LRU, Redis, etc.).
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, query string) (Result, bool)
	Set(ctx context.Context, query string, r Result)
}

// ResultCache is a size-bounded, time-expiring in-memory Cache. The least
// recently used entry is evicted on overflow.
type ResultCache struct {
	lru *expirable.LRU[string, Result]
}

// NewResultCache returns a cache holding at most size entries for ttl each.
func NewResultCache(size int, ttl time.Duration) *ResultCache {
	return &ResultCache{lru: expirable.NewLRU[string, Result](size, nil, ttl)}
}

// Get returns the unexpired entry for query.
func (c *ResultCache) Get(_ context.Context, query string) (Result, bool) {
	return c.lru.Get(query)
}

// Set stores r under query and restarts its TTL.
func (c *ResultCache) Set(_ context.Context, query string, r Result) {
	c.lru.Add(query, r)
}

// Len returns the number of entries, expired ones included until purged.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}
