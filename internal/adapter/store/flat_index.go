package store

import (
	"fmt"
	"math"
	"sort"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

// FlatIndex is a brute-force vector index. Vectors are L2-normalized at
// insertion so cosine similarity reduces to an inner product at query time.
// Writes are not synchronized: build the index from one goroutine, then
// share it for concurrent reads.
type FlatIndex struct {
	dim     int
	ids     []string
	vectors [][]float32
	byID    map[string]int
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{
		dim:  dimension,
		byID: make(map[string]int),
	}
}

// Add indexes one vector under a chunk ID. Vectors of the wrong dimension
// are rejected with DimensionMismatchError, and a chunk ID can only be
// added once.
func (ix *FlatIndex) Add(chunkID string, vector []float32) error {
	if len(vector) != ix.dim {
		return &domain.DimensionMismatchError{Want: ix.dim, Got: len(vector)}
	}
	if _, exists := ix.byID[chunkID]; exists {
		return fmt.Errorf("vector already indexed for chunk %s", chunkID)
	}

	ix.byID[chunkID] = len(ix.ids)
	ix.ids = append(ix.ids, chunkID)
	ix.vectors = append(ix.vectors, l2Normalize(vector))
	return nil
}

// Search returns the topK most similar chunks by cosine similarity,
// highest first. Ties keep insertion order.
func (ix *FlatIndex) Search(query []float32, topK int) ([]port.VectorHit, error) {
	if len(query) != ix.dim {
		return nil, &domain.DimensionMismatchError{Want: ix.dim, Got: len(query)}
	}
	if len(ix.ids) == 0 || topK <= 0 {
		return nil, nil
	}

	q := l2Normalize(query)
	hits := make([]port.VectorHit, len(ix.ids))
	for i, vec := range ix.vectors {
		var dot float64
		for j := range vec {
			dot += float64(vec[j]) * float64(q[j])
		}
		hits[i] = port.VectorHit{ChunkID: ix.ids[i], Score: dot}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Dimension returns the vector dimension the index accepts.
func (ix *FlatIndex) Dimension() int {
	return ix.dim
}

// Len returns the number of indexed vectors.
func (ix *FlatIndex) Len() int {
	return len(ix.ids)
}

// IDs returns the chunk IDs in insertion order. The slice is owned by the
// index.
func (ix *FlatIndex) IDs() []string {
	return ix.ids
}

// VectorByID returns the stored, normalized vector for a chunk ID. The
// slice is owned by the index.
func (ix *FlatIndex) VectorByID(id string) ([]float32, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return ix.vectors[i], true
}

// l2Normalize returns a unit-length copy of v. The zero vector comes back
// as a zero copy rather than NaNs.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
