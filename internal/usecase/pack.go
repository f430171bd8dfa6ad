package usecase

import (
	"fmt"
	"sort"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

const defaultTokenBudget = 2000

// ContextBuilder assembles retrieved chunks into a cited context block that
// fits a token budget.
type ContextBuilder struct {
	tok port.Tokenizer
}

func NewContextBuilder(tokenizer port.Tokenizer) *ContextBuilder {
	return &ContextBuilder{tok: tokenizer}
}

// Build selects the best-value chunks that fit the budget and formats them
// with page citations. Chunks are ranked by score per token, so a short
// highly relevant clause beats a long mildly relevant one. Selected chunks
// that sit next to each other on a page merge into a single snippet. A
// budget of zero or less falls back to the default.
func (b *ContextBuilder) Build(query string, chunks []domain.ScoredChunk, budget int) domain.ContextBlock {
	if budget <= 0 {
		budget = defaultTokenBudget
	}
	block := domain.ContextBlock{
		Query:        query,
		BudgetTokens: budget,
		Snippets:     []domain.Snippet{},
	}
	if len(chunks) == 0 {
		return block
	}

	type ranked struct {
		chunk   domain.ScoredChunk
		utility float64
		tokens  int
	}

	pool := make([]ranked, 0, len(chunks))
	for _, c := range chunks {
		tokens := b.tok.CountTokens(c.Chunk.Text)
		if tokens == 0 {
			tokens = 1
		}
		pool = append(pool, ranked{
			chunk:   c,
			utility: c.Score / float64(tokens),
			tokens:  tokens,
		})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].utility > pool[j].utility
	})

	selected := make([]domain.ScoredChunk, 0, len(pool))
	used := 0
	for _, r := range pool {
		if used+r.tokens > budget {
			continue
		}
		selected = append(selected, r.chunk)
		used += r.tokens
	}

	merged := mergeAdjacent(selected)

	used = 0
	for _, sc := range merged {
		snippet := domain.Snippet{
			Page:  sc.Chunk.PageNumber,
			Range: fmt.Sprintf("page %d, chars %d-%d", sc.Chunk.PageNumber, sc.Chunk.StartChar, sc.Chunk.EndChar),
			Why:   fmt.Sprintf("score %.2f", sc.Score),
			Text:  sc.Chunk.Text,
		}
		block.Snippets = append(block.Snippets, snippet)
		used += b.tok.CountTokens(sc.Chunk.Text)
	}
	block.UsedTokens = used

	return block
}

// mergeAdjacent joins selected chunks whose ranges touch or overlap on the
// same page. Output is ordered by page, then offset.
func mergeAdjacent(chunks []domain.ScoredChunk) []domain.ScoredChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	byPage := make(map[int][]domain.ScoredChunk)
	for _, c := range chunks {
		byPage[c.Chunk.PageNumber] = append(byPage[c.Chunk.PageNumber], c)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	result := make([]domain.ScoredChunk, 0, len(chunks))
	for _, p := range pages {
		pageChunks := byPage[p]
		sort.Slice(pageChunks, func(i, j int) bool {
			if pageChunks[i].Chunk.StartChar != pageChunks[j].Chunk.StartChar {
				return pageChunks[i].Chunk.StartChar < pageChunks[j].Chunk.StartChar
			}
			return pageChunks[i].Chunk.ID < pageChunks[j].Chunk.ID
		})

		i := 0
		for i < len(pageChunks) {
			merged := pageChunks[i]
			j := i + 1
			for j < len(pageChunks) {
				next := pageChunks[j]
				if next.Chunk.StartChar > merged.Chunk.EndChar+1 {
					break
				}
				if next.Chunk.EndChar > merged.Chunk.EndChar {
					merged.Chunk.EndChar = next.Chunk.EndChar
				}
				merged.Chunk.Text = merged.Chunk.Text + "\n" + next.Chunk.Text
				if next.Score > merged.Score {
					merged.Score = next.Score
				}
				j++
			}
			result = append(result, merged)
			i = j
		}
	}

	return result
}
