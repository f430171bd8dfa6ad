package port

import (
	"context"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// Retriever defines the interface for querying indexed content.
type Retriever interface {
	// Retrieve returns the top-k chunks for the query.
	Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalResult, error)
}
