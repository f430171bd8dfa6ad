package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

const cohereRerankURL = "https://api.cohere.ai/v1/rerank"

// CohereReranker scores query-document pairs with Cohere's rerank API.
type CohereReranker struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type cohereRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// NewCohereReranker reads the API key from the named environment variable.
// An empty endpoint uses the public Cohere API.
func NewCohereReranker(apiKeyEnv, model, endpoint string, logger *slog.Logger) (*CohereReranker, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = "rerank-multilingual-v3.0"
	}
	if endpoint == "" {
		endpoint = cohereRerankURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CohereReranker{
		apiKey:  apiKey,
		model:   model,
		baseURL: endpoint,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger,
	}, nil
}

// Rerank scores documents against the query, highest first. API failures
// surface as ProviderUnavailableError so callers can fall back to the
// original ranking.
func (r *CohereReranker) Rerank(ctx context.Context, query string, docs []string) ([]port.RerankScore, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	// The API accepts at most 1000 documents per request.
	const maxDocs = 1000
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}

	payload, err := json.Marshal(cohereRerankRequest{
		Query:     query,
		Documents: docs,
		Model:     r.model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderUnavailableError{Provider: "cohere", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderUnavailableError{Provider: "cohere", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderUnavailableError{
			Provider: "cohere",
			Err:      fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, body),
		}
	}

	var parsed cohereRerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank response: %w", err)
	}

	scores := make([]port.RerankScore, len(parsed.Results))
	for i, res := range parsed.Results {
		scores[i] = port.RerankScore{Index: res.Index, Score: res.RelevanceScore}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	r.log.Debug("cohere: reranked", "docs", len(docs), "model", r.model)
	return scores, nil
}

// ModelID returns the rerank model identifier.
func (r *CohereReranker) ModelID() string {
	return r.model
}

// TermOverlapReranker ranks documents by the fraction of query terms each
// one contains. It keeps reranking available without network access.
type TermOverlapReranker struct {
	tok port.Tokenizer
}

// NewTermOverlapReranker creates a reranker over the given tokenizer.
func NewTermOverlapReranker(tok port.Tokenizer) *TermOverlapReranker {
	return &TermOverlapReranker{tok: tok}
}

// Rerank scores each document by query-term coverage, highest first. A query
// with no indexable terms keeps the incoming order.
func (r *TermOverlapReranker) Rerank(_ context.Context, query string, docs []string) ([]port.RerankScore, error) {
	queryTerms := make(map[string]struct{})
	for _, t := range r.tok.Tokenize(query) {
		queryTerms[t] = struct{}{}
	}

	scores := make([]port.RerankScore, len(docs))
	if len(queryTerms) == 0 {
		for i := range docs {
			scores[i] = port.RerankScore{Index: i, Score: 1.0 - float64(i)*0.01}
		}
		return scores, nil
	}

	for i, doc := range docs {
		docTerms := make(map[string]struct{})
		for _, t := range r.tok.Tokenize(doc) {
			docTerms[t] = struct{}{}
		}

		matches := 0
		for term := range queryTerms {
			if _, ok := docTerms[term]; ok {
				matches++
			}
		}
		scores[i] = port.RerankScore{Index: i, Score: float64(matches) / float64(len(queryTerms))}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}

// ModelID returns the rerank model identifier.
func (r *TermOverlapReranker) ModelID() string {
	return "term-overlap"
}
