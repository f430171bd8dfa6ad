package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts, one vector per input,
	// preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelID returns the identifier of the embedding model.
	ModelID() string
}

// VectorIndex is a similarity index over chunk vectors. Implementations are
// single-writer: Add calls happen during a build, Search is safe for
// concurrent use once the build is done.
type VectorIndex interface {
	// Add inserts a vector under a chunk ID. Vectors whose length differs
	// from the index dimension are rejected.
	Add(chunkID string, vector []float32) error

	// Search finds the topK most similar vectors to the query.
	Search(vector []float32, topK int) ([]VectorHit, error)

	// Dimension returns the vector dimension the index accepts.
	Dimension() int

	// Len returns the number of stored vectors.
	Len() int
}

// VectorHit is one nearest-neighbor match.
type VectorHit struct {
	ChunkID string
	Score   float64
}
