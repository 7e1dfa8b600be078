package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/vectorindex"
)

func TestDocumentID_Slugging(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"My Report (v2).pdf", "my_report__v2_"},
		{"pump_manual.PDF", "pump_manual"},
		{"Notes.txt", "notes"},
		{"weird名前.pdf", "weird__"},
		{"already-ok_name.1.pdf", "already-ok_name.1"},
		{".pdf", "document"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DocumentID(tc.filename), "filename %q", tc.filename)
	}
}

func newIngestFixture(t *testing.T) (*IngestService, *vectorindex.Store, *fakeEmbedder) {
	t.Helper()
	store, err := vectorindex.NewStore(t.TempDir())
	require.NoError(t, err)
	embedder := newFakeEmbedder([]float32{1, 0})
	return NewIngestService(store, embedder, nil, 64), store, embedder
}

func TestIngestFile_IndexesPlainText(t *testing.T) {
	svc, store, embedder := newIngestFixture(t)

	result, err := svc.IngestFile(context.Background(), "manual.txt", []byte("the pump bearing must be greased monthly"))
	require.NoError(t, err)
	require.Equal(t, "manual", result.DocumentID)
	require.False(t, result.Skipped)
	require.Equal(t, 1, result.DocumentsIndexed)
	require.Equal(t, 1, result.TotalChunks)
	require.Equal(t, 1, embedder.callCount())
	require.True(t, store.Exists("manual"))

	idx, err := store.Load(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())
}

func TestIngestFile_SecondUploadSkipsWithoutEmbedding(t *testing.T) {
	svc, _, embedder := newIngestFixture(t)
	ctx := context.Background()

	first, err := svc.IngestFile(ctx, "manual.txt", []byte("some content"))
	require.NoError(t, err)
	require.False(t, first.Skipped)
	callsAfterFirst := embedder.callCount()

	second, err := svc.IngestFile(ctx, "manual.txt", []byte("different content, same name"))
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, 0, second.DocumentsIndexed)
	require.Equal(t, 0, second.TotalChunks)
	require.Equal(t, callsAfterFirst, embedder.callCount())
}

func TestIngestFile_EmptyContentLeavesNoIndexAndAllowsRetry(t *testing.T) {
	svc, store, embedder := newIngestFixture(t)
	ctx := context.Background()

	result, err := svc.IngestFile(ctx, "empty.txt", []byte("   \n\n  "))
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Equal(t, 0, result.TotalChunks)
	// The page was still read even though it produced no chunks.
	require.Equal(t, 1, result.DocumentsIndexed)
	require.Equal(t, 0, embedder.callCount())
	require.False(t, store.Exists("empty"))

	retry, err := svc.IngestFile(ctx, "empty.txt", []byte("now with actual content"))
	require.NoError(t, err)
	require.False(t, retry.Skipped)
	require.Equal(t, 1, retry.TotalChunks)
	require.True(t, store.Exists("empty"))
}

func TestIngestFile_EmbedderFailureLeavesNoPartialIndex(t *testing.T) {
	svc, store, embedder := newIngestFixture(t)
	embedder.err = errors.New("provider down")

	_, err := svc.IngestFile(context.Background(), "manual.txt", []byte("content"))
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.False(t, store.Exists("manual"))
}

func TestIngestFile_LongTextIsChunkedInBatches(t *testing.T) {
	store, err := vectorindex.NewStore(t.TempDir())
	require.NoError(t, err)
	embedder := newFakeEmbedder([]float32{1, 0})
	svc := NewIngestService(store, embedder, nil, 2)

	var content []byte
	for i := 0; i < 300; i++ {
		content = append(content, []byte("a sentence about vibration analysis. ")...)
	}
	result, err := svc.IngestFile(context.Background(), "big.txt", content)
	require.NoError(t, err)
	require.Greater(t, result.TotalChunks, 2)
	// Batch size 2 forces multiple provider round trips.
	require.Greater(t, embedder.callCount(), 1)

	idx, err := store.Load(context.Background(), "big")
	require.NoError(t, err)
	require.Equal(t, result.TotalChunks, idx.Len())
}
