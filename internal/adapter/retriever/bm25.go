package retriever

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// BM25Index ranks chunks against queries with Okapi BM25. Index rebuilds the
// corpus wholesale and swaps it in under a write lock, so searches stay safe
// while a rebuild is in flight.
type BM25Index struct {
	k1  float64
	b   float64
	tok port.Tokenizer
	log *slog.Logger

	mu      sync.RWMutex
	indexed bool
	chunks  []domain.Chunk
	docTF   []map[string]int
	docLen  []int
	df      map[string]int
	avgLen  float64
}

// NewBM25Index creates an empty index. Out-of-range parameters fall back to
// k1=1.5, b=0.75.
func NewBM25Index(tok port.Tokenizer, logger *slog.Logger, k1, b float64) *BM25Index {
	if logger == nil {
		logger = slog.Default()
	}
	if k1 <= 0 {
		k1 = defaultK1
	}
	if b <= 0 || b > 1 {
		b = defaultB
	}
	return &BM25Index{
		k1:  k1,
		b:   b,
		tok: tok,
		log: logger,
		df:  make(map[string]int),
	}
}

// Index replaces the indexed corpus and returns the number of chunks taken
// in. Chunks keep their given order; score ties in Search resolve to the
// earlier chunk.
func (ix *BM25Index) Index(chunks []domain.Chunk) int {
	docTF := make([]map[string]int, len(chunks))
	docLen := make([]int, len(chunks))
	df := make(map[string]int)
	totalLen := 0

	for i, chunk := range chunks {
		tokens := ix.tok.Tokenize(chunk.Text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		docTF[i] = tf
		docLen[i] = len(tokens)
		totalLen += len(tokens)
		for t := range tf {
			df[t]++
		}
	}

	avgLen := 0.0
	if len(chunks) > 0 {
		avgLen = float64(totalLen) / float64(len(chunks))
	}

	ix.mu.Lock()
	ix.chunks = append([]domain.Chunk(nil), chunks...)
	ix.docTF = docTF
	ix.docLen = docLen
	ix.df = df
	ix.avgLen = avgLen
	ix.indexed = true
	ix.mu.Unlock()

	ix.log.Debug("bm25: index built", "chunks", len(chunks), "terms", len(df), "avg_len", avgLen)
	return len(chunks)
}

// Search returns the topK chunks ranked by BM25 score. Chunks sharing no
// term with the query are excluded, and kept scores must strictly exceed
// minScore. Searching before Index logs a warning and returns nothing.
func (ix *BM25Index) Search(query string, topK int, minScore float64) []domain.BM25Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.indexed {
		ix.log.Warn("bm25: search before index build", "query", query)
		return nil
	}

	queryTokens := ix.tok.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	n := float64(len(ix.chunks))
	var results []domain.BM25Result
	for i := range ix.chunks {
		score, matched := ix.scoreDoc(queryTokens, i, n)
		if len(matched) == 0 || score <= minScore {
			continue
		}
		results = append(results, domain.BM25Result{
			Chunk:        ix.chunks[i],
			Score:        score,
			MatchedTerms: matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// scoreDoc accumulates the contribution of every query token against one
// document. Tokens repeated in the query contribute once per occurrence,
// and each occurrence is recorded in the matched terms.
func (ix *BM25Index) scoreDoc(queryTokens []string, doc int, n float64) (float64, []string) {
	tf := ix.docTF[doc]
	if len(tf) == 0 {
		return 0, nil
	}

	dl := float64(ix.docLen[doc])
	var score float64
	var matched []string
	for _, term := range queryTokens {
		freq, ok := tf[term]
		if !ok {
			continue
		}

		df := float64(ix.df[term])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		f := float64(freq)
		score += idf * (f * (ix.k1 + 1)) / (f + ix.k1*(1-ix.b+ix.b*dl/ix.avgLen))
		matched = append(matched, term)
	}
	return score, matched
}

// Prefilter narrows the corpus to the chunks most lexically similar to the
// query. When nothing matches, the whole corpus comes back so the caller can
// still run vector search over every chunk.
func (ix *BM25Index) Prefilter(query string, topK int) []domain.Chunk {
	results := ix.Search(query, topK, 0)
	if len(results) == 0 {
		ix.mu.RLock()
		defer ix.mu.RUnlock()
		return append([]domain.Chunk(nil), ix.chunks...)
	}

	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks
}

// Stats summarizes the indexed corpus.
func (ix *BM25Index) Stats() domain.Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pages := make(map[int]struct{})
	for _, c := range ix.chunks {
		pages[c.PageNumber] = struct{}{}
	}
	return domain.Stats{
		Pages:       len(pages),
		Chunks:      len(ix.chunks),
		Terms:       len(ix.df),
		AvgChunkLen: ix.avgLen,
	}
}

// Indexed reports whether Index has run at least once.
func (ix *BM25Index) Indexed() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.indexed
}
