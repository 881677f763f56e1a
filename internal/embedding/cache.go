package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/hyperjump/chatsearch/internal/metrics"
)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by model and text. Failed calls are not
// cached.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache
}

// NewCachedEmbedder creates a cache of the given capacity in front of next.
func NewCachedEmbedder(next Embedder, capacity int) (*CachedEmbedder, error) {
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

// Embed returns the cached embedding for text or asks the wrapped embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.next.Model() + "\x00" + text
	if v, ok := c.cache.Get(key); ok {
		metrics.EmbeddingCacheHits.Inc()
		return cloneVector(v.([]float32)), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Model returns the wrapped embedder's model.
func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

// Close purges the cache and closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
