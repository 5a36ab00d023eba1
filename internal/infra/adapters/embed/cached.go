package embed

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"docchat-service/internal/domain/ports/adapter"
	"docchat-service/internal/infra/metrics"
)

// Compile-time check
var _ adapter.EmbeddingProvider = (*CachedEmbedder)(nil)

// CachedEmbedder memoizes single-text embeddings for a short TTL, so
// repeated questions skip the embedding call. Batch calls pass through:
// chunk embedding happens once per document and would only churn the cache.
type CachedEmbedder struct {
	inner adapter.EmbeddingProvider
	cache *gocache.Cache
}

func NewCachedEmbedder(inner adapter.EmbeddingProvider, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedEmbedder{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedEmbedder) Name() string { return c.inner.Name() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.inner.Embed(ctx, texts)
	}
	key := texts[0]
	if v, ok := c.cache.Get(key); ok {
		metrics.IncCacheRequest("embed", "hit")
		cached := v.([]float32)
		// callers may normalize in place; hand out a copy
		cp := make([]float32, len(cached))
		copy(cp, cached)
		return [][]float32{cp}, nil
	}
	metrics.IncCacheRequest("embed", "miss")

	vecs, err := c.inner.Embed(ctx, texts)
	if err != nil || len(vecs) == 0 {
		return vecs, err
	}
	stored := make([]float32, len(vecs[0]))
	copy(stored, vecs[0])
	c.cache.Set(key, stored, gocache.DefaultExpiration)
	return vecs, nil
}
