package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/docparse"
	"github.com/senseops/diagd/internal/filestore"
	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/textsplit"
	"github.com/senseops/diagd/internal/vectorindex"
)

const (
	// Task types passed through to the embedding provider. Documents and
	// queries are embedded asymmetrically.
	TaskTypeDocument = "retrieval_document"
	TaskTypeQuery    = "retrieval_query"

	defaultEmbedBatchSize = 64
)

var slugPattern = regexp.MustCompile(`[^a-z0-9._-]`)

// Slugify derives a stable document id from a filename stem. Every rune
// outside [a-z0-9._-] maps to its own underscore so distinct names stay
// distinct.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	if slug == "" {
		return "document"
	}
	return slug
}

// DocumentID maps an uploaded filename to its index id. The extension is
// dropped before slugging so "pump_manual.pdf" and "pump_manual.PDF" land
// on the same index.
func DocumentID(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Slugify(stem)
}

type IngestService struct {
	store    *vectorindex.Store
	embedder ai.IEmbedder
	splitter *textsplit.Splitter
	archive  filestore.Store
	batch    int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIngestService(store *vectorindex.Store, embedder ai.IEmbedder, archive filestore.Store, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &IngestService{
		store:    store,
		embedder: embedder,
		splitter: textsplit.New(textsplit.DefaultChunkSize, textsplit.DefaultOverlap),
		archive:  archive,
		batch:    batchSize,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *IngestService) lockFor(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[docID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[docID] = l
	}
	return l
}

// IngestFile indexes one uploaded document. If an index for the derived
// document id already exists the upload is skipped without touching the
// embedding provider.
func (s *IngestService) IngestFile(ctx context.Context, filename string, content []byte) (*model.IngestResult, error) {
	docID := DocumentID(filename)
	result := &model.IngestResult{DocumentID: docID}

	lock := s.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()

	if s.store.Exists(docID) {
		result.Skipped = true
		return result, nil
	}

	pages, err := docparse.ExtractPages(ctx, content, filename)
	if err != nil {
		return nil, err
	}
	result.DocumentsIndexed = len(pages)

	var chunks []model.Chunk
	for _, page := range pages {
		for _, text := range s.splitter.Split(page.Text) {
			chunks = append(chunks, model.Chunk{Text: text, Page: page.Number})
		}
	}
	if len(chunks) == 0 {
		// Nothing to index. No directory is created so a later upload
		// with real content can still succeed.
		logutil.GetLogger(ctx).Warn("document produced no chunks", zap.String("document_id", docID))
		return result, nil
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, docID, chunks, vectors); err != nil {
		if appErr.Is(err, appErr.ErrConflict) {
			// A concurrent upload built the index first.
			result.Skipped = true
			result.DocumentsIndexed = 0
			return result, nil
		}
		return nil, err
	}

	s.archiveSource(ctx, docID, filename, content)

	result.TotalChunks = len(chunks)
	return result, nil
}

func (s *IngestService) embedChunks(ctx context.Context, chunks []model.Chunk) ([][]float32, error) {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, ai.SanitizeText(c.Text))
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batch {
		end := start + s.batch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.Embed(ctx, texts[start:end], TaskTypeDocument)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts", appErr.ErrEmbedding, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// archiveSource keeps the raw upload so indexes can be rebuilt offline.
// Failures are logged and do not fail the ingest.
func (s *IngestService) archiveSource(ctx context.Context, docID, filename string, content []byte) {
	if s.archive == nil {
		return
	}
	ext := strings.ToLower(filepath.Ext(filename))
	key := docID + ext
	reader := newBytesReadSeekCloser(content)
	if err := s.archive.Save(ctx, key, reader, int64(len(content))); err != nil {
		logutil.GetLogger(ctx).Warn("archive upload failed",
			zap.String("document_id", docID),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

type bytesReadSeekCloser struct {
	*bytes.Reader
}

func newBytesReadSeekCloser(b []byte) filestore.ReadSeekCloser {
	return &bytesReadSeekCloser{Reader: bytes.NewReader(b)}
}

func (b *bytesReadSeekCloser) Close() error { return nil }
