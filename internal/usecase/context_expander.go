package usecase

import (
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// ContextExpander widens retrieval hits with the chunks around them, so a
// clause split across chunk boundaries comes back whole. Chunks in the index
// are ordered by page and offset; neighbors are the entries next to a hit in
// that order.
type ContextExpander struct {
	index    *SearchIndex
	radius   int
	samePage bool
}

// NewContextExpander creates an expander that pulls in radius chunks on each
// side of every hit, staying within the hit's page.
func NewContextExpander(index *SearchIndex, radius int) *ContextExpander {
	if radius < 0 {
		radius = 0
	}
	return &ContextExpander{index: index, radius: radius, samePage: true}
}

// IncludeAdjacentPages lets expansion cross page boundaries, for documents
// whose clauses run over page breaks.
func (e *ContextExpander) IncludeAdjacentPages() {
	e.samePage = false
}

// Expand returns the hits followed by their neighboring chunks. A neighbor
// carries half the score of the hit that pulled it in and is added once even
// when two hits share it. Hits keep their order and scores.
func (e *ContextExpander) Expand(hits []domain.ScoredChunk) []domain.ScoredChunk {
	if e.radius == 0 || len(hits) == 0 || e.index == nil {
		return hits
	}

	pos := make(map[string]int, len(e.index.Chunks))
	for i, c := range e.index.Chunks {
		pos[c.ID] = i
	}

	included := make(map[string]bool, len(hits))
	for _, h := range hits {
		included[h.Chunk.ID] = true
	}

	out := make([]domain.ScoredChunk, 0, len(hits)*(1+2*e.radius))
	out = append(out, hits...)

	for _, h := range hits {
		i, ok := pos[h.Chunk.ID]
		if !ok {
			continue
		}
		for d := 1; d <= e.radius; d++ {
			for _, j := range []int{i - d, i + d} {
				if j < 0 || j >= len(e.index.Chunks) {
					continue
				}
				n := e.index.Chunks[j]
				if e.samePage && n.PageNumber != h.Chunk.PageNumber {
					continue
				}
				if included[n.ID] {
					continue
				}
				included[n.ID] = true
				out = append(out, domain.ScoredChunk{Chunk: n, Score: h.Score * 0.5})
			}
		}
	}

	return out
}
