package port

import "context"

// Reranker scores query-document pairs for relevance.
type Reranker interface {
	// Rerank scores the documents against the query. Scores refer to
	// positions in the input slice; higher is better.
	Rerank(ctx context.Context, query string, docs []string) ([]RerankScore, error)

	// ModelID returns the identifier of the reranking model.
	ModelID() string
}

// RerankScore is a relevance score for the document at Index in the input.
type RerankScore struct {
	Index int
	Score float64
}
