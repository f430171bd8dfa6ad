package chunker

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// Strategy selects how page text is split into chunks.
type Strategy int

const (
	FixedSize Strategy = iota
	Sentence
	Paragraph
	Recursive
	Section
)

var strategyNames = map[Strategy]string{
	FixedSize: "fixed",
	Sentence:  "sentence",
	Paragraph: "paragraph",
	Recursive: "recursive",
	Section:   "section",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStrategy maps a config string to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown chunking strategy: %q", name)
}

// Config holds chunking parameters. Sizes and offsets are measured in runes
// of the original page text.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	Separators   []string
}

// DefaultConfig returns the general-purpose chunking parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    512,
		ChunkOverlap: 50,
		MinChunkSize: 100,
		Separators: []string{
			"\n\n",
			"\n",
			". ",
			"! ",
			"? ",
			"; ",
			", ",
			" ",
		},
	}
}

// LegalConfig returns parameters tuned for contracts and deeds: clause
// markers split before generic separators and chunks run larger so a whole
// clause tends to stay together.
func LegalConfig() Config {
	return Config{
		ChunkSize:    600,
		ChunkOverlap: 100,
		MinChunkSize: 150,
		Separators: []string{
			"\n\nCLÁUSULA",
			"\n\nArtigo",
			"\n\nParágrafo",
			"\n\n§",
			"\n\n",
			"\n",
			". ",
			"; ",
			", ",
			" ",
		},
	}
}

// piece is a strategy-produced span before materialization into a chunk.
// start and end are rune offsets into the page text. heading is set by the
// section strategy; prefixed marks continuation chunks that carry the
// heading text prepended.
type piece struct {
	start    int
	end      int
	heading  string
	prefixed bool
}

// TextChunker splits page text using a fixed strategy. Each strategy is a
// pure function over the page runes; the chunker only dispatches and
// materializes the results.
type TextChunker struct {
	strategy Strategy
	cfg      Config
}

// New creates a TextChunker. Zero or negative sizes fall back to defaults.
func New(strategy Strategy, cfg Config) *TextChunker {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = def.MinChunkSize
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = def.Separators
	}
	return &TextChunker{strategy: strategy, cfg: cfg}
}

// NewDefault creates a recursive chunker with default parameters.
func NewDefault() *TextChunker {
	return New(Recursive, DefaultConfig())
}

// ForLegalDocuments creates a recursive chunker with clause-aware
// separators.
func ForLegalDocuments() *TextChunker {
	return New(Recursive, LegalConfig())
}

// Chunk splits one page of text. Chunk IDs are assigned per page in
// emission order: p<page>_c0, p<page>_c1, ...
func (c *TextChunker) Chunk(text string, pageNumber int) []domain.Chunk {
	pageRunes := []rune(text)
	var pieces []piece

	switch c.strategy {
	case FixedSize:
		pieces = chunkFixed(pageRunes, c.cfg)
	case Sentence:
		pieces = chunkSentence(pageRunes, c.cfg)
	case Paragraph:
		pieces = chunkParagraph(pageRunes, c.cfg)
	case Section:
		pieces = chunkSection(pageRunes, c.cfg)
	default:
		pieces = chunkRecursive(pageRunes, c.cfg)
	}

	return materialize(pageRunes, pieces, pageNumber)
}

// ChunkDocument splits every page in page order and stamps each chunk with
// the page count.
func (c *TextChunker) ChunkDocument(pages []domain.Page) []domain.Chunk {
	ordered := append([]domain.Page(nil), pages...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	total := strconv.Itoa(len(ordered))
	var chunks []domain.Chunk
	for _, page := range ordered {
		pageChunks := c.Chunk(page.Text, page.Number)
		for i := range pageChunks {
			if pageChunks[i].Metadata == nil {
				pageChunks[i].Metadata = make(map[string]string)
			}
			pageChunks[i].Metadata["total_pages"] = total
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks
}

func materialize(pageRunes []rune, pieces []piece, pageNumber int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		body := string(pageRunes[p.start:p.end])
		text := body
		var md map[string]string
		if p.heading != "" {
			md = map[string]string{"heading": p.heading}
			if p.prefixed {
				text = p.heading + "\n" + body
				md["heading_prefixed"] = "true"
			}
		}
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(pageNumber, i),
			Text:       text,
			PageNumber: pageNumber,
			StartChar:  p.start,
			EndChar:    p.end,
			Metadata:   md,
		})
	}
	return chunks
}

func chunkID(page, index int) string {
	return fmt.Sprintf("p%d_c%d", page, index)
}

// trimSpan shrinks [start, end) past surrounding whitespace.
func trimSpan(pageRunes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(pageRunes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(pageRunes[end-1]) {
		end--
	}
	return start, end
}

// splitLineSpans returns the rune span of every line, newline excluded.
func splitLineSpans(pageRunes []rune) [][2]int {
	var lines [][2]int
	start := 0
	for i, r := range pageRunes {
		if r == '\n' {
			lines = append(lines, [2]int{start, i})
			start = i + 1
		}
	}
	if start < len(pageRunes) {
		lines = append(lines, [2]int{start, len(pageRunes)})
	}
	return lines
}
