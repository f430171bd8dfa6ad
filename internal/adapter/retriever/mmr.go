package retriever

import (
	"log/slog"
	"math"
	"sort"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// MMRSelector diversifies a candidate list with Maximal Marginal Relevance.
// Each round picks the candidate maximizing
//
//	(1-diversity)*relevance - diversity*maxSimilarityToSelected
//
// where relevance is the candidate score normalized against the best score
// in the list and similarity is the cosine between chunk embeddings. With
// diversity 0 the selection reduces to plain relevance order.
type MMRSelector struct {
	diversity float64
	log       *slog.Logger
}

// NewMMRSelector creates a selector. Out-of-range diversity falls back
// to 0.3.
func NewMMRSelector(diversity float64, logger *slog.Logger) *MMRSelector {
	if diversity < 0 || diversity > 1 {
		diversity = 0.3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MMRSelector{diversity: diversity, log: logger}
}

// Select returns up to k candidates reordered by MMR. vectors maps chunk IDs
// to their embeddings; when a candidate has no vector the selector logs a
// warning and falls back to relevance order.
func (s *MMRSelector) Select(candidates []domain.ScoredChunk, vectors map[string][]float32, k int) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}

	for _, c := range candidates {
		if len(vectors[c.Chunk.ID]) == 0 {
			s.log.Warn("mmr: missing embedding, falling back to relevance order", "chunk", c.Chunk.ID)
			return relevanceOrder(candidates, k)
		}
	}

	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	selected := make([]domain.ScoredChunk, 0, k)
	remaining := make([]domain.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestMMR := math.Inf(-1)

		for i, candidate := range remaining {
			relevance := candidate.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim := cosineSim(vectors[candidate.Chunk.ID], vectors[sel.Chunk.ID])
				if sim > maxSim {
					maxSim = sim
				}
			}

			mmr := (1-s.diversity)*relevance - s.diversity*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func relevanceOrder(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	ordered := make([]domain.ScoredChunk, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})
	if len(ordered) > k {
		ordered = ordered[:k]
	}
	return ordered
}

// cosineSim computes the cosine similarity between two embeddings,
// accumulating in float64. Mismatched or zero-norm vectors score 0.
func cosineSim(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
