package embedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
)

// WrapLruCacheToEmbedder puts an in-process LRU in front of an embedder.
// Batch calls only reach the wrapped embedder for cache misses; the result
// is reassembled in input order.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if l == nil || l.next == nil {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		cacheKey, _, _ := buildCacheKey(l.next.ModelName(), taskType, text)
		if cached, ok := l.cache.Get(cacheKey); ok {
			vectors[i] = cloneEmbedding(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.Int("count", len(texts)))
		return vectors, nil
	}
	fetched, err := l.next.Embed(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fetched), len(missTexts))
	}
	for n, i := range missIdx {
		cacheKey, _, _ := buildCacheKey(l.next.ModelName(), taskType, missTexts[n])
		l.cache.Add(cacheKey, cloneEmbedding(fetched[n]))
		vectors[i] = fetched[n]
	}
	return vectors, nil
}

func (l *lruEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := l.Embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func (l *lruEmbedder) ModelName() string {
	if l == nil || l.next == nil {
		return ""
	}
	return l.next.ModelName()
}
