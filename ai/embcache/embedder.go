// Package embcache provides a caching decorator for ai.Embedder.
//
// Vectors are stored in a storage.EmbeddingCache keyed by a hash of the model
// name and the text, so switching models never serves stale vectors.
// Concurrent requests for the same text share one call to the inner embedder.
package embcache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/metrics"
	"github.com/poiesic/newsdesk/storage"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// CachedEmbedder caches embeddings produced by an inner embedder.
// Cache failures are logged and never surface to callers.
type CachedEmbedder struct {
	inner      ai.Embedder
	cache      storage.EmbeddingCache
	model      string
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *slog.Logger
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// Option configures a CachedEmbedder.
type Option func(*CachedEmbedder)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedEmbedder) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheCounter replaces the hit/miss counter. It must carry a single
// "result" label. Passing nil disables counting.
func WithCacheCounter(counter *prometheus.CounterVec) Option {
	return func(c *CachedEmbedder) {
		c.cacheTotal = counter
	}
}

// New wraps inner with a cache. model namespaces the cache keys.
func New(inner ai.Embedder, cache storage.EmbeddingCache, model string, opts ...Option) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:      inner,
		cache:      cache,
		model:      model,
		cacheTotal: metrics.EmbeddingCacheTotal,
		logger:     slog.Default().With("component", "embcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbedText returns a cached embedding or calls the inner embedder.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.get(ctx, key); ok {
		c.incCache("hit")
		return vec, nil
	}
	c.incCache("miss")

	v, err, _ := c.group.Do(fmt.Sprint(uint64(key)), func() (any, error) {
		vec, err := c.inner.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		c.put(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	// Callers may normalize in place; never hand out the shared slice.
	return append([]float32(nil), v.([]float32)...), nil
}

// EmbedTexts serves cached vectors and sends only the misses to the inner
// embedder, in one batch. Output order matches texts.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]core.ID, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.get(ctx, keys[i]); ok {
			c.incCache("hit")
			out[i] = vec
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed texts: got %d embeddings for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		c.put(ctx, keys[i], vecs[j])
	}
	return out, nil
}

func (c *CachedEmbedder) cacheKey(text string) core.ID {
	return core.IDFromContent(c.model + "\x00" + text)
}

func (c *CachedEmbedder) get(ctx context.Context, key core.ID) ([]float32, bool) {
	vec, ok, err := c.cache.GetEmbedding(ctx, key)
	if err != nil {
		c.logger.Warn("failed to read cached embedding", "key", uint64(key), "err", err)
		return nil, false
	}
	if !ok || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) put(ctx context.Context, key core.ID, vec []float32) {
	if err := c.cache.PutEmbedding(ctx, key, vec); err != nil {
		c.logger.Warn("failed to cache embedding", "key", uint64(key), "err", err)
	}
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
