package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/senseops/diagd/internal/model"
)

func TestBuild_RejectsMismatchedInput(t *testing.T) {
	_, err := Build([]model.Chunk{{Text: "a"}}, nil)
	require.Error(t, err)

	_, err = Build(
		[]model.Chunk{{Text: "a"}, {Text: "b"}},
		[][]float32{{1, 0}, {1, 0, 0}},
	)
	require.Error(t, err)
}

func TestQuery_OrdersByAscendingDistance(t *testing.T) {
	chunks := []model.Chunk{
		{Text: "far", Page: 1},
		{Text: "near", Page: 2},
		{Text: "mid", Page: 3},
	}
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{1, 1},
	}
	idx, err := Build(chunks, vectors)
	require.NoError(t, err)

	scored, err := idx.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	require.Equal(t, "near", scored[0].Chunk.Text)
	require.InDelta(t, 0.0, scored[0].Score, 1e-6)
	require.Equal(t, "mid", scored[1].Chunk.Text)
	require.InDelta(t, 0.2929, scored[1].Score, 1e-3)
	require.Equal(t, "far", scored[2].Chunk.Text)
	require.InDelta(t, 1.0, scored[2].Score, 1e-6)
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	chunks := []model.Chunk{{Text: "first"}, {Text: "second"}, {Text: "third"}}
	vectors := [][]float32{{2, 0}, {3, 0}, {1, 0}}
	idx, err := Build(chunks, vectors)
	require.NoError(t, err)

	scored, err := idx.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	require.Equal(t, "first", scored[0].Chunk.Text)
	require.Equal(t, "second", scored[1].Chunk.Text)
	require.Equal(t, "third", scored[2].Chunk.Text)
}

func TestQuery_TruncatesToK(t *testing.T) {
	chunks := []model.Chunk{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	idx, err := Build(chunks, vectors)
	require.NoError(t, err)

	scored, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
}

func TestQuery_SkipsZeroVectors(t *testing.T) {
	chunks := []model.Chunk{{Text: "zero"}, {Text: "real"}}
	vectors := [][]float32{{0, 0}, {1, 0}}
	idx, err := Build(chunks, vectors)
	require.NoError(t, err)

	scored, err := idx.Query([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	require.Equal(t, "real", scored[0].Chunk.Text)
}

func TestQuery_RejectsWrongDimension(t *testing.T) {
	idx, err := Build([]model.Chunk{{Text: "a"}}, [][]float32{{1, 0}})
	require.NoError(t, err)

	_, err = idx.Query([]float32{1, 0, 0}, 1)
	require.Error(t, err)
}

func TestUnmarshalVectors_RoundTrip(t *testing.T) {
	chunks := []model.Chunk{{Text: "a", Page: 1}, {Text: "b", Page: 2}}
	vectors := [][]float32{{0.25, -1.5, 3}, {1, 2, -0.125}}
	idx, err := Build(chunks, vectors)
	require.NoError(t, err)

	restored, err := UnmarshalVectors(idx.MarshalVectors(), chunks)
	require.NoError(t, err)
	require.Equal(t, 2, restored.Len())

	scored, err := restored.Query([]float32{0.25, -1.5, 3}, 1)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	require.Equal(t, "a", scored[0].Chunk.Text)
	require.InDelta(t, 0.0, scored[0].Score, 1e-6)
}

func TestUnmarshalVectors_RejectsCorruptData(t *testing.T) {
	chunks := []model.Chunk{{Text: "a"}}

	_, err := UnmarshalVectors([]byte("nope"), chunks)
	require.Error(t, err)

	idx, err := Build(chunks, [][]float32{{1, 2}})
	require.NoError(t, err)
	data := idx.MarshalVectors()

	_, err = UnmarshalVectors(data[:len(data)-2], chunks)
	require.Error(t, err)

	_, err = UnmarshalVectors(data, nil)
	require.Error(t, err)
}
