package retriever

import (
	"sort"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// defaultKeywordWeight is the lexical share in hybrid fusion.
const defaultKeywordWeight = 0.3

// FuseWeighted combines a vector ranking and a lexical ranking into one list
// scored as
//
//	final = (1-keywordWeight)*vectorScore + keywordWeight*lexicalScore
//
// Lexical scores are max-normalized to [0, 1] before mixing so BM25 values
// share a scale with cosine similarities; vector scores pass through as-is.
// A chunk present on only one side contributes 0 from the other, and the
// fused scores are not rescaled afterwards. Ties keep first-seen order,
// vector ranking first.
func FuseWeighted(vector, lexical []domain.ScoredChunk, keywordWeight float64) []domain.ScoredChunk {
	if keywordWeight < 0 || keywordWeight > 1 {
		keywordWeight = defaultKeywordWeight
	}

	lexical = maxNormalize(lexical)

	type entry struct {
		chunk domain.Chunk
		vec   float64
		lex   float64
	}
	entries := make(map[string]*entry, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))

	for _, r := range vector {
		e, ok := entries[r.Chunk.ID]
		if !ok {
			e = &entry{chunk: r.Chunk}
			entries[r.Chunk.ID] = e
			order = append(order, r.Chunk.ID)
		}
		e.vec = r.Score
	}
	for _, r := range lexical {
		e, ok := entries[r.Chunk.ID]
		if !ok {
			e = &entry{chunk: r.Chunk}
			entries[r.Chunk.ID] = e
			order = append(order, r.Chunk.ID)
		}
		e.lex = r.Score
	}

	fused := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		e := entries[id]
		fused = append(fused, domain.ScoredChunk{
			Chunk: e.chunk,
			Score: (1-keywordWeight)*e.vec + keywordWeight*e.lex,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// FuseRRF combines the two rankings with Reciprocal Rank Fusion:
// each list contributes weight/(rrfK + rank + 1) for every chunk it holds.
// Rank positions replace raw scores, which makes the fusion robust to
// incomparable score scales. Ties keep first-seen order.
func FuseRRF(vector, lexical []domain.ScoredChunk, keywordWeight float64, rrfK int) []domain.ScoredChunk {
	if rrfK <= 0 {
		rrfK = 60
	}
	if keywordWeight < 0 || keywordWeight > 1 {
		keywordWeight = defaultKeywordWeight
	}

	scores := make(map[string]float64, len(vector)+len(lexical))
	chunks := make(map[string]domain.Chunk, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))

	add := func(rank int, chunk domain.Chunk, weight float64) {
		if _, ok := chunks[chunk.ID]; !ok {
			chunks[chunk.ID] = chunk
			order = append(order, chunk.ID)
		}
		scores[chunk.ID] += weight / float64(rrfK+rank+1)
	}

	vectorWeight := 1 - keywordWeight
	for rank, r := range vector {
		add(rank, r.Chunk, vectorWeight)
	}
	for rank, r := range lexical {
		add(rank, r.Chunk, keywordWeight)
	}

	fused := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		fused = append(fused, domain.ScoredChunk{Chunk: chunks[id], Score: scores[id]})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// maxNormalize scales scores so the best becomes 1.0, preserving ratios.
// Lists with no positive score come back unchanged.
func maxNormalize(results []domain.ScoredChunk) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(results))
	copy(out, results)

	var max float64
	for _, r := range out {
		if r.Score > max {
			max = r.Score
		}
	}
	if max <= 0 {
		return out
	}

	for i := range out {
		out[i].Score /= max
	}
	return out
}
