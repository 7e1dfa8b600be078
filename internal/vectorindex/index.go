package vectorindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/senseops/diagd/internal/model"
)

// Index is a flat cosine index over the embedded chunks of one document.
// Scores are cosine distances (1 - cosine similarity): lower is closer.
type Index struct {
	chunks []model.Chunk
	vecs   [][]float32
	mags   []float64
	dim    int
}

type ScoredChunk struct {
	Chunk model.Chunk
	Score float64
}

func Build(chunks []model.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("vectorindex: chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	idx := &Index{}
	if len(vectors) == 0 {
		return idx, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("vectorindex: zero-dimension vectors")
	}
	for i := range vectors {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vectorindex: inconsistent vector dims %d vs %d", len(vectors[i]), dim)
		}
	}
	mags := make([]float64, len(vectors))
	for i := range vectors {
		mags[i] = magnitude(vectors[i])
	}
	idx.chunks = append([]model.Chunk(nil), chunks...)
	idx.vecs = append([][]float32(nil), vectors...)
	idx.mags = mags
	idx.dim = dim
	return idx, nil
}

func (i *Index) Len() int {
	return len(i.vecs)
}

// Query returns the top-k chunks by ascending cosine distance. Ties keep
// insertion order, so results are deterministic for a given index.
func (i *Index) Query(query []float32, k int) ([]ScoredChunk, error) {
	if i.dim == 0 || len(i.vecs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("vectorindex: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := magnitude(query)
	if qm == 0 {
		return nil, nil
	}
	scored := make([]ScoredChunk, 0, len(i.vecs))
	for j := range i.vecs {
		if i.mags[j] == 0 {
			continue
		}
		sim := dot(query, i.vecs[j]) / (qm * i.mags[j])
		if math.IsNaN(sim) {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: i.chunks[j], Score: 1 - sim})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score < scored[b].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

const (
	binMagic   = "DIDX"
	binVersion = uint32(1)
)

// MarshalVectors encodes magic, version, dim(uint32), n(uint32), then the
// packed float32 vectors. Chunk metadata is persisted separately as JSON.
func (i *Index) MarshalVectors() []byte {
	out := make([]byte, 0, 16+4*i.dim*len(i.vecs))
	out = append(out, binMagic...)
	out = appendU32(out, binVersion)
	out = appendU32(out, uint32(i.dim))
	out = appendU32(out, uint32(len(i.vecs)))
	for _, vec := range i.vecs {
		for _, v := range vec {
			out = appendU32(out, math.Float32bits(v))
		}
	}
	return out
}

// UnmarshalVectors restores vectors and pairs them with the given chunks.
func UnmarshalVectors(data []byte, chunks []model.Chunk) (*Index, error) {
	if len(data) < 16 || string(data[:4]) != binMagic {
		return nil, errors.New("vectorindex: bad index header")
	}
	if ver := binary.LittleEndian.Uint32(data[4:8]); ver != binVersion {
		return nil, fmt.Errorf("vectorindex: unsupported index version %d", ver)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	if n != len(chunks) {
		return nil, fmt.Errorf("vectorindex: %d vectors for %d chunks", n, len(chunks))
	}
	if len(data) != 16+4*dim*n {
		return nil, errors.New("vectorindex: truncated index data")
	}
	off := 16
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vecs[idx] = vec
	}
	return Build(chunks, vecs)
}

func appendU32(out []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(out, buf[:]...)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
