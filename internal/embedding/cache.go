package embedding

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	vec []float32
	ok  bool
}

// CachedEmbedding memoizes lookups of another WordEmbedding, misses included.
// It is safe for concurrent use.
type CachedEmbedding struct {
	inner WordEmbedding
	cache *lru.Cache[string, cacheEntry]
}

// NewCachedEmbedding wraps inner with an LRU cache of capacity entries.
func NewCachedEmbedding(inner WordEmbedding, capacity int) (*CachedEmbedding, error) {
	c, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedding{inner: inner, cache: c}, nil
}

// Lookup returns the cached result for token, consulting the wrapped model on a miss.
func (c *CachedEmbedding) Lookup(token string) ([]float32, bool) {
	if e, ok := c.cache.Get(token); ok {
		return e.vec, e.ok
	}
	vec, ok := c.inner.Lookup(token)
	c.cache.Add(token, cacheEntry{vec: vec, ok: ok})
	return vec, ok
}

// Dimensions returns the wrapped model's vector size.
func (c *CachedEmbedding) Dimensions() int {
	return c.inner.Dimensions()
}

// Len returns the number of cached tokens.
func (c *CachedEmbedding) Len() int {
	return c.cache.Len()
}
