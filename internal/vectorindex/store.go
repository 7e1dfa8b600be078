package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
)

const (
	vectorsFile = "index.bin"
	chunksFile  = "chunks.json"
	tmpPrefix   = ".tmp-"
)

// Store keeps one persisted index per document under a root directory:
// <root>/<document_id>/{index.bin, chunks.json}. An index is complete only
// when both artifacts are present. Indexes are immutable once created.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("vector store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Exists(docID string) bool {
	dir := filepath.Join(s.root, docID)
	if _, err := os.Stat(filepath.Join(dir, vectorsFile)); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, chunksFile)); err != nil {
		return false
	}
	return true
}

// Create persists a new index for docID. The artifacts are staged in a
// temporary sibling directory and renamed into place; the rename fails if
// the target already exists, so at most one concurrent Create wins. The
// loser gets ErrConflict.
func (s *Store) Create(ctx context.Context, docID string, chunks []model.Chunk, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx, err := Build(chunks, vectors)
	if err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp(s.root, tmpPrefix+docID+"-")
	if err != nil {
		return fmt.Errorf("stage index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	meta, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmpDir, chunksFile), meta, 0o644); err != nil {
		return fmt.Errorf("write chunk metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, vectorsFile), idx.MarshalVectors(), 0o644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	target := filepath.Join(s.root, docID)
	if err := os.Rename(tmpDir, target); err != nil {
		if s.Exists(docID) {
			return appErr.ErrConflict
		}
		return fmt.Errorf("publish index: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, docID string) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, docID)
	meta, err := os.ReadFile(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexLoad, docID, err)
	}
	var chunks []model.Chunk
	if err := json.Unmarshal(meta, &chunks); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexLoad, docID, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexLoad, docID, err)
	}
	idx, err := UnmarshalVectors(data, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexLoad, docID, err)
	}
	return idx, nil
}

// List enumerates document ids with a complete persisted index. Partial or
// corrupt directories are skipped silently; only an unreadable root is an
// error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrConfiguration, err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}
		if s.Exists(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// SweepTmp removes staging directories left behind by crashed ingestions.
func (s *Store) SweepTmp(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", appErr.ErrConfiguration, err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logutil.GetLogger(ctx).Warn("failed to remove stale index dir", zap.String("dir", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
