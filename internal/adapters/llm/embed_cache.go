package llm

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

// CachedEmbedder memoizes query embeddings. Customers repeat short questions
// ("valor?", "info") often enough that most lookups hit.
type CachedEmbedder struct {
	next  domain.Embedder
	cache *cache.Cache
}

func NewCachedEmbedder(next domain.Embedder, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedEmbedder{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Embed normalizes the text before embedding it, so every casing of a query
// maps to the same cached vector.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}

	vec, err := c.next.Embed(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, vec)
	return vec, nil
}

func (c *CachedEmbedder) Len() int {
	return c.cache.ItemCount()
}
