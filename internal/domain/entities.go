package domain

import (
	"sort"
	"strings"
)

// Page is one page of extracted document text. Numbering starts at 1.
type Page struct {
	Number int
	Text   string
}

// Chunk is a retrievable span of page text. StartChar and EndChar are rune
// offsets into the original page text, half-open.
type Chunk struct {
	ID         string
	Text       string
	PageNumber int
	StartChar  int
	EndChar    int
	Metadata   map[string]string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// BM25Result is a lexical match together with the query terms that matched.
type BM25Result struct {
	Chunk        Chunk
	Score        float64
	MatchedTerms []string
}

// RetrievalResult is the outcome of a single retrieval call. Chunks and
// Scores are parallel slices ordered best-first.
type RetrievalResult struct {
	Query          string
	Chunks         []Chunk
	Scores         []float64
	TotalRetrieved int
	Metadata       map[string]any
}

// Context joins the retrieved chunk texts into a single block, separated so
// downstream consumers can tell chunks apart.
func (r RetrievalResult) Context() string {
	texts := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n---\n\n")
}

// Best returns the highest scored chunk, if any.
func (r RetrievalResult) Best() (Chunk, bool) {
	if len(r.Chunks) == 0 {
		return Chunk{}, false
	}
	return r.Chunks[0], true
}

// Pages returns the sorted distinct page numbers the result draws from.
func (r RetrievalResult) Pages() []int {
	seen := make(map[int]bool)
	var pages []int
	for _, c := range r.Chunks {
		if !seen[c.PageNumber] {
			seen[c.PageNumber] = true
			pages = append(pages, c.PageNumber)
		}
	}
	sort.Ints(pages)
	return pages
}

// Snippet is one cited excerpt inside a ContextBlock.
type Snippet struct {
	Page  int    `json:"page"`
	Range string `json:"range"`
	Why   string `json:"why"`
	Text  string `json:"text"`
}

// ContextBlock is retrieved text assembled under a token budget, each
// snippet cited by page and character range.
type ContextBlock struct {
	Query        string    `json:"query"`
	BudgetTokens int       `json:"budget_tokens"`
	UsedTokens   int       `json:"used_tokens"`
	Snippets     []Snippet `json:"snippets"`
}

// Render formats the block as plain text with page citations, one snippet
// per section.
func (b ContextBlock) Render() string {
	var sb strings.Builder
	for i, s := range b.Snippets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(s.Range)
		sb.WriteString("]\n")
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Stats describes an indexed corpus.
type Stats struct {
	Pages       int
	Chunks      int
	Terms       int
	AvgChunkLen float64
	Embedded    int
}
