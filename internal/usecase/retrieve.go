package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/cache"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/retriever"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

// Mode selects which retrieval paths run for a query.
type Mode int

const (
	ModeHybrid Mode = iota
	ModeLexical
	ModeVector
)

func (m Mode) String() string {
	switch m {
	case ModeLexical:
		return "lexical"
	case ModeVector:
		return "vector"
	}
	return "hybrid"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lexical", "bm25":
		return ModeLexical, nil
	case "vector", "semantic":
		return ModeVector, nil
	case "hybrid", "":
		return ModeHybrid, nil
	}
	return ModeHybrid, fmt.Errorf("unknown retrieval mode: %s", s)
}

// Fusion strategy names for hybrid mode.
const (
	FusionWeighted = "weighted"
	FusionRRF      = "rrf"
)

const (
	defaultTopK         = 5
	rerankOverfetch     = 3
	mmrOverfetch        = 5
	defaultQueryTimeout = 10 * time.Second
)

// Options controls one retrieval call. A zero TopK or Fusion falls back to
// the default; zero weights are taken literally, so start from
// DefaultOptions when in doubt.
type Options struct {
	TopK          int
	MinScore      float64
	Mode          Mode
	KeywordWeight float64
	Fusion        string
	Rerank        bool
	MMR           bool
	MMRDiversity  float64
	Pages         []int
}

func DefaultOptions() Options {
	return Options{
		TopK:          defaultTopK,
		Mode:          ModeHybrid,
		KeywordWeight: 0.3,
		Fusion:        FusionWeighted,
		MMRDiversity:  0.3,
	}
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.Fusion == "" {
		o.Fusion = FusionWeighted
	}
	return o
}

// fingerprint folds every option that changes results into the cache key.
func (o Options) fingerprint() string {
	return fmt.Sprintf("k=%d|mode=%s|min=%.4f|fuse=%s|w=%.2f|rerank=%t|mmr=%t|div=%.2f|pages=%v",
		o.TopK, o.Mode, o.MinScore, o.Fusion, o.KeywordWeight, o.Rerank, o.MMR, o.MMRDiversity, o.Pages)
}

// Retriever answers queries against a built SearchIndex. The reranker and
// query cache are optional; the embedder is only needed for vector and
// hybrid modes.
type Retriever struct {
	index        *SearchIndex
	embedder     port.Embedder
	reranker     port.Reranker
	queries      *cache.QueryCache
	queryTimeout time.Duration
	log          *slog.Logger
}

func NewRetriever(index *SearchIndex, embedder port.Embedder, reranker port.Reranker, queries *cache.QueryCache, queryTimeout time.Duration, logger *slog.Logger) *Retriever {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		index:        index,
		embedder:     embedder,
		reranker:     reranker,
		queries:      queries,
		queryTimeout: queryTimeout,
		log:          logger,
	}
}

// Retrieve runs the retrieval pipeline: candidate generation per mode,
// score and page filters, optional rerank, optional MMR, cut to TopK.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (domain.RetrievalResult, error) {
	opts = opts.withDefaults()
	start := time.Now()

	meta := map[string]any{"mode": opts.Mode.String()}
	if opts.Mode == ModeHybrid {
		meta["fusion"] = opts.Fusion
	}

	if strings.TrimSpace(query) == "" {
		meta["warning"] = "empty query"
		return domain.RetrievalResult{Query: query, Metadata: meta}, nil
	}
	if r.index == nil || !r.index.BM25.Indexed() {
		r.log.Warn("retrieve: query before index build", "query", query)
		meta["warning"] = "not indexed"
		return domain.RetrievalResult{Query: query, Metadata: meta}, nil
	}

	variant := opts.fingerprint()
	if r.queries != nil {
		if hit, ok := r.queries.Get(query, variant); ok {
			meta["cached"] = true
			return resultFrom(query, hit, meta), nil
		}
	}

	limit := opts.TopK
	if opts.Rerank {
		limit = opts.TopK * rerankOverfetch
	}
	if opts.MMR {
		limit = opts.TopK * mmrOverfetch
	}

	candidates, err := r.candidates(ctx, query, opts, limit, meta)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	meta["candidates"] = len(candidates)

	candidates = filterMinScore(candidates, opts.MinScore)
	candidates = filterPages(candidates, opts.Pages)

	if opts.Rerank {
		candidates = r.rerank(ctx, query, candidates)
		meta["rerank"] = true
	}
	if opts.MMR {
		candidates = r.diversify(candidates, opts)
		meta["mmr"] = true
	}
	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}

	if r.queries != nil {
		r.queries.Put(query, variant, candidates)
	}

	meta["elapsed_ms"] = time.Since(start).Milliseconds()
	return resultFrom(query, candidates, meta), nil
}

// RetrieveMultiple answers each query with opts and merges the results.
// With dedupe, a chunk found by several queries keeps its best score. The
// merged list is sorted by score descending.
func (r *Retriever) RetrieveMultiple(ctx context.Context, queries []string, opts Options, dedupe bool) (domain.RetrievalResult, error) {
	opts = opts.withDefaults()

	var merged []domain.ScoredChunk
	bestAt := make(map[string]int)

	for _, q := range queries {
		res, err := r.Retrieve(ctx, q, opts)
		if err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("query %q: %w", q, err)
		}
		for i, chunk := range res.Chunks {
			sc := domain.ScoredChunk{Chunk: chunk, Score: res.Scores[i]}
			if !dedupe {
				merged = append(merged, sc)
				continue
			}
			if at, seen := bestAt[chunk.ID]; seen {
				if sc.Score > merged[at].Score {
					merged[at] = sc
				}
				continue
			}
			bestAt[chunk.ID] = len(merged)
			merged = append(merged, sc)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	meta := map[string]any{
		"mode":    opts.Mode.String(),
		"queries": len(queries),
		"dedupe":  dedupe,
	}
	return resultFrom(strings.Join(queries, " | "), merged, meta), nil
}

// candidates generates the ranked pre-filter list for the requested mode.
func (r *Retriever) candidates(ctx context.Context, query string, opts Options, limit int, meta map[string]any) ([]domain.ScoredChunk, error) {
	switch opts.Mode {
	case ModeLexical:
		return scoredFromBM25(r.index.BM25.Search(query, limit, 0)), nil

	case ModeVector:
		if r.embedder == nil {
			return nil, fmt.Errorf("vector retrieval needs an embedding provider")
		}
		if r.index.Vectors == nil {
			return nil, fmt.Errorf("index holds no vectors: %w", domain.ErrNotIndexed)
		}
		return r.vectorSearch(ctx, query, limit)

	default:
		lexical := scoredFromBM25(r.index.BM25.Search(query, limit, 0))

		if r.embedder == nil || r.index.Vectors == nil {
			r.log.Warn("retrieve: hybrid without vector side, serving lexical only", "query", query)
			meta["degraded"] = "lexical"
			return lexical, nil
		}
		vector, err := r.vectorSearch(ctx, query, limit)
		if err != nil {
			r.log.Warn("retrieve: vector side failed, serving lexical only",
				"query", query, "error", err)
			meta["degraded"] = "lexical"
			return lexical, nil
		}

		if opts.Fusion == FusionRRF {
			return retriever.FuseRRF(vector, lexical, opts.KeywordWeight, 0), nil
		}
		return retriever.FuseWeighted(vector, lexical, opts.KeywordWeight), nil
	}
}

// vectorSearch embeds the query under the query timeout and maps index hits
// back to chunks.
func (r *Retriever) vectorSearch(ctx context.Context, query string, limit int) ([]domain.ScoredChunk, error) {
	embedCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	vecs, err := r.embedder.Embed(embedCtx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vecs))
	}

	hits, err := r.index.Vectors.Search(vecs[0], limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := r.index.ByID[hit.ChunkID]
		if !ok {
			r.log.Warn("retrieve: indexed vector without chunk record", "chunk", hit.ChunkID)
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: hit.Score})
	}
	return out, nil
}

// rerank rescores candidates with the configured reranker. Reranker scores
// replace the retrieval scores. Failures keep the incoming order.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []domain.ScoredChunk) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return candidates
	}
	if r.reranker == nil {
		r.log.Warn("retrieve: rerank requested without a reranker, keeping original order")
		return candidates
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Chunk.Text
	}

	scores, err := r.reranker.Rerank(ctx, query, docs)
	if err != nil {
		r.log.Warn("retrieve: rerank failed, keeping original order",
			"model", r.reranker.ModelID(), "error", err)
		return candidates
	}

	out := make([]domain.ScoredChunk, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: candidates[s.Index].Chunk, Score: s.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// diversify applies maximal marginal relevance over the chunk embeddings.
func (r *Retriever) diversify(candidates []domain.ScoredChunk, opts Options) []domain.ScoredChunk {
	vectors := make(map[string][]float32, len(candidates))
	if r.index.Vectors != nil {
		for _, c := range candidates {
			if vec, ok := r.index.Vectors.VectorByID(c.Chunk.ID); ok {
				vectors[c.Chunk.ID] = vec
			}
		}
	}
	selector := retriever.NewMMRSelector(opts.MMRDiversity, r.log)
	return selector.Select(candidates, vectors, opts.TopK)
}

func scoredFromBM25(results []domain.BM25Result) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(results))
	for i, res := range results {
		out[i] = domain.ScoredChunk{Chunk: res.Chunk, Score: res.Score}
	}
	return out
}

func filterMinScore(chunks []domain.ScoredChunk, minScore float64) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Score > minScore {
			out = append(out, c)
		}
	}
	return out
}

func filterPages(chunks []domain.ScoredChunk, pages []int) []domain.ScoredChunk {
	if len(pages) == 0 {
		return chunks
	}
	wanted := make(map[int]bool, len(pages))
	for _, p := range pages {
		wanted[p] = true
	}
	out := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if wanted[c.Chunk.PageNumber] {
			out = append(out, c)
		}
	}
	return out
}

func resultFrom(query string, chunks []domain.ScoredChunk, meta map[string]any) domain.RetrievalResult {
	result := domain.RetrievalResult{
		Query:          query,
		Chunks:         make([]domain.Chunk, len(chunks)),
		Scores:         make([]float64, len(chunks)),
		TotalRetrieved: len(chunks),
		Metadata:       meta,
	}
	for i, c := range chunks {
		result.Chunks[i] = c.Chunk
		result.Scores[i] = c.Score
	}
	return result
}
