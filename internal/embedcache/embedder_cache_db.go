package embedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/model"
	"github.com/senseops/diagd/internal/repo"
)

// WrapDBCacheToEmbedder persists embeddings in the shared postgres cache
// table so restarts and replicas reuse them. Save failures are logged, not
// surfaced; the cache is best effort.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, text)
		values, ok, err := d.repo.Get(ctx, modelName, taskType, contentHash)
		if err != nil {
			return nil, err
		}
		if ok {
			vectors[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.Int("count", len(texts)))
		return vectors, nil
	}
	fetched, err := d.next.Embed(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fetched), len(missTexts))
	}
	now := time.Now().Unix()
	for n, i := range missIdx {
		_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, missTexts[n])
		if err := d.repo.Save(ctx, &model.EmbeddingCache{
			ModelName:   modelName,
			TaskType:    taskType,
			ContentHash: contentHash,
			Embedding:   fetched[n],
			Ctime:       now,
		}); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
		}
		vectors[i] = fetched[n]
	}
	return vectors, nil
}

func (d *dbEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := d.Embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}
