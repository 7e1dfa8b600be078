package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/vectorindex"
)

const DefaultTopK = 5

// RetrievalService answers similarity queries across every document index
// in the store. Results from all indexes are merged into one ranking by
// ascending distance.
type RetrievalService struct {
	store    *vectorindex.Store
	embedder ai.IEmbedder
}

func NewRetrievalService(store *vectorindex.Store, embedder ai.IEmbedder) *RetrievalService {
	return &RetrievalService{store: store, embedder: embedder}
}

// ListDocuments returns the ids of all complete indexes, sorted.
func (s *RetrievalService) ListDocuments(ctx context.Context) ([]string, error) {
	_ = ctx
	docs, err := s.store.List()
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

// Search embeds the question once and queries the selected indexes
// concurrently. Scoping is mandatory: an absent or empty allowedDocs set
// matches nothing and returns no hits without calling the embedder.
func (s *RetrievalService) Search(ctx context.Context, question string, k int, allowedDocs []string) ([]model.Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	docs, err := s.selectDocuments(ctx, allowedDocs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []model.Hit{}, nil
	}

	query, err := s.embedder.EmbedOne(ctx, ai.SanitizeText(question), TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}

	type docResult struct {
		docID  string
		scored []vectorindex.ScoredChunk
	}
	results := make([]docResult, len(docs))
	var wg sync.WaitGroup
	for i, docID := range docs {
		wg.Add(1)
		go func(i int, docID string) {
			defer wg.Done()
			idx, err := s.store.Load(ctx, docID)
			if err != nil {
				// One unreadable index must not sink the whole query.
				logutil.GetLogger(ctx).Warn("index skipped", zap.String("document_id", docID), zap.Error(err))
				return
			}
			scored, err := idx.Query(query, k)
			if err != nil {
				logutil.GetLogger(ctx).Warn("index query failed", zap.String("document_id", docID), zap.Error(err))
				return
			}
			results[i] = docResult{docID: docID, scored: scored}
		}(i, docID)
	}
	wg.Wait()

	// Collect in enumeration order so equal scores rank deterministically,
	// then stable-sort ascending and cut to k.
	hits := make([]model.Hit, 0, len(docs)*k)
	for _, r := range results {
		for _, sc := range r.scored {
			hits = append(hits, model.Hit{
				Snippet:    sc.Chunk.Text,
				DocumentID: r.docID,
				Page:       sc.Chunk.Page,
				Score:      sc.Score,
			})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score < hits[b].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// selectDocuments resolves the scope of a search. An empty allowed set
// selects nothing; a caller that did not scope its query must get zero
// results, never a global search. Unknown ids in the allowed set are
// ignored rather than failing the query.
func (s *RetrievalService) selectDocuments(ctx context.Context, allowedDocs []string) ([]string, error) {
	if len(allowedDocs) == 0 {
		return nil, nil
	}
	all, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(allowedDocs))
	for _, id := range allowedDocs {
		allowed[id] = struct{}{}
	}
	selected := make([]string, 0, len(allowed))
	for _, id := range all {
		if _, ok := allowed[id]; ok {
			selected = append(selected, id)
		}
	}
	return selected, nil
}
