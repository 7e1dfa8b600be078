package embedcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// countingEmbedder returns a distinct vector per text and records how many
// texts actually reached it.
type countingEmbedder struct {
	served int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		c.served++
		out[i] = []float32{float32(len(text)), float32(len(taskType))}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting-model"
}

func TestLruEmbedder_SecondCallIsServedFromCache(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"alpha", "beta"}, "retrieval_document")
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 2, inner.served)

	second, err := cached.Embed(ctx, []string{"alpha", "beta"}, "retrieval_document")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 2, inner.served)
}

func TestLruEmbedder_PartialMissOnlyFetchesMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	_, err := cached.Embed(ctx, []string{"alpha"}, "retrieval_document")
	require.NoError(t, err)
	require.Equal(t, 1, inner.served)

	vectors, err := cached.Embed(ctx, []string{"gamma", "alpha", "delta"}, "retrieval_document")
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, 3, inner.served)
	// Each position still holds the vector for its own text.
	require.Equal(t, float32(len("gamma")), vectors[0][0])
	require.Equal(t, float32(len("alpha")), vectors[1][0])
	require.Equal(t, float32(len("delta")), vectors[2][0])
}

func TestLruEmbedder_TaskTypesAreCachedSeparately(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	_, err := cached.Embed(ctx, []string{"alpha"}, "retrieval_document")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, []string{"alpha"}, "retrieval_query")
	require.NoError(t, err)
	require.Equal(t, 2, inner.served)
}

// shortEmbedder misbehaves by returning fewer vectors than texts.
type shortEmbedder struct{}

func (s *shortEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return [][]float32{{1, 0}}, nil
}

func (s *shortEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (s *shortEmbedder) ModelName() string {
	return "short-model"
}

func TestLruEmbedder_RejectsShortEmbedderReply(t *testing.T) {
	cached := WrapLruCacheToEmbedder(&shortEmbedder{}, 16, time.Minute)

	_, err := cached.Embed(context.Background(), []string{"alpha", "beta", "gamma"}, "retrieval_document")
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 vectors for 3 texts")
}

func TestBuildCacheKey_Deterministic(t *testing.T) {
	key1, hash1, model := buildCacheKey("m", "task", "text")
	key2, hash2, _ := buildCacheKey("m", "task", "text")
	require.Equal(t, key1, key2)
	require.Equal(t, hash1, hash2)
	require.Equal(t, "m", model)
	require.Equal(t, fmt.Sprintf("m|task|%s", hash1), key1)

	key3, _, _ := buildCacheKey("m", "task", "other")
	require.NotEqual(t, key1, key3)
}
