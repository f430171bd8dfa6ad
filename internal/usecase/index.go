package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/retriever"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/store"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 32
)

// SearchIndex is the queryable state a build produces: the chunk corpus in
// page and offset order, the lexical index, and the vector index when an
// embedding provider ran. Vectors is nil for lexical-only builds.
type SearchIndex struct {
	Chunks    []domain.Chunk
	ByID      map[string]domain.Chunk
	BM25      *retriever.BM25Index
	Vectors   *store.FlatIndex
	ModelName string
}

// ProgressFunc reports embedding progress. It may be called concurrently
// from worker goroutines.
type ProgressFunc func(done, total int)

// IndexerConfig tunes the build pipeline. Zero values fall back to defaults.
type IndexerConfig struct {
	Workers   int
	BatchSize int
	K1        float64
	B         float64
}

// Indexer turns document pages into a SearchIndex.
type Indexer struct {
	chunker  port.Chunker
	tok      port.Tokenizer
	embedder port.Embedder
	cfg      IndexerConfig
	log      *slog.Logger
}

// NewIndexer wires a build pipeline. A nil embedder produces lexical-only
// indexes.
func NewIndexer(chunker port.Chunker, tokenizer port.Tokenizer, embedder port.Embedder, cfg IndexerConfig, logger *slog.Logger) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		chunker:  chunker,
		tok:      tokenizer,
		embedder: embedder,
		cfg:      cfg,
		log:      logger,
	}
}

// BuildResult reports what a build produced.
type BuildResult struct {
	Index         *SearchIndex
	PagesIndexed  int
	ChunksCreated int
	Embedded      int
	Elapsed       time.Duration
}

// Build chunks the pages, embeds the chunks through a bounded worker pool,
// and assembles the lexical and vector indexes. progress may be nil.
func (u *Indexer) Build(ctx context.Context, pages []domain.Page, progress ProgressFunc) (*BuildResult, error) {
	start := time.Now()

	chunks := u.chunker.ChunkDocument(pages)
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	var flat *store.FlatIndex
	modelName := ""
	if u.embedder != nil && len(chunks) > 0 {
		vectors := make([][]float32, len(chunks))
		if err := u.embedAll(ctx, chunks, vectors, progress); err != nil {
			return nil, err
		}

		flat = store.NewFlatIndex(u.embedder.Dimension())
		for i, chunk := range chunks {
			if err := flat.Add(chunk.ID, vectors[i]); err != nil {
				return nil, fmt.Errorf("index vector for %s: %w", chunk.ID, err)
			}
		}
		modelName = u.embedder.ModelID()
	}

	bm25 := retriever.NewBM25Index(u.tok, u.log, u.cfg.K1, u.cfg.B)
	bm25.Index(chunks)

	embedded := 0
	if flat != nil {
		embedded = flat.Len()
	}
	elapsed := time.Since(start)
	u.log.Info("index: build complete",
		"pages", len(pages),
		"chunks", len(chunks),
		"embedded", embedded,
		"elapsed", elapsed)

	return &BuildResult{
		Index: &SearchIndex{
			Chunks:    chunks,
			ByID:      byID,
			BM25:      bm25,
			Vectors:   flat,
			ModelName: modelName,
		},
		PagesIndexed:  len(pages),
		ChunksCreated: len(chunks),
		Embedded:      embedded,
		Elapsed:       elapsed,
	}, nil
}

// embedAll fills out with one vector per chunk. Batches run on a bounded
// pool; the first failure wins and later batches are skipped.
func (u *Indexer) embedAll(ctx context.Context, chunks []domain.Chunk, out [][]float32, progress ProgressFunc) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     atomic.Int64
	)
	sem := make(chan struct{}, u.cfg.Workers)
	total := len(chunks)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for begin := 0; begin < len(chunks); begin += u.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			fail(err)
			break
		}
		if failed() {
			break
		}
		end := min(begin+u.cfg.BatchSize, len(chunks))

		sem <- struct{}{}
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			defer func() { <-sem }()

			if failed() {
				return
			}

			texts := make([]string, end-begin)
			for i := begin; i < end; i++ {
				texts[i-begin] = chunks[i].Text
			}

			vecs, err := u.embedder.Embed(ctx, texts)
			if err != nil {
				fail(err)
				return
			}
			if len(vecs) != len(texts) {
				fail(fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts)))
				return
			}

			copy(out[begin:end], vecs)
			n := done.Add(int64(end - begin))
			if progress != nil {
				progress(int(n), total)
			}
		}(begin, end)
	}

	wg.Wait()
	return firstErr
}

// SaveIndex persists idx into dir. Lexical-only indexes are written with an
// empty vector section so the chunk corpus still round-trips.
func SaveIndex(idx *SearchIndex, dir string) error {
	flat := idx.Vectors
	if flat == nil {
		flat = store.NewFlatIndex(0)
	}
	return store.Save(dir, flat, idx.ByID, idx.ModelName)
}

// LoadIndex reads a persisted index from dir and rebuilds the lexical side
// from the stored chunks. When embedder is non-nil the stored model name and
// dimension are checked against it, so a query path never mixes vector
// spaces.
func LoadIndex(dir string, tokenizer port.Tokenizer, cfg IndexerConfig, embedder port.Embedder, logger *slog.Logger) (*SearchIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	flat, byID, manifest, err := store.Load(dir)
	if err != nil {
		return nil, err
	}

	if flat.Len() == 0 && flat.Dimension() == 0 {
		flat = nil
	}
	if flat != nil && embedder != nil {
		if manifest.ModelName != embedder.ModelID() {
			return nil, &domain.CorruptIndexError{
				Path:   dir,
				Reason: fmt.Sprintf("model mismatch: index built with %s, provider is %s", manifest.ModelName, embedder.ModelID()),
			}
		}
		if manifest.Dimension != embedder.Dimension() {
			return nil, &domain.DimensionMismatchError{Want: manifest.Dimension, Got: embedder.Dimension()}
		}
	}

	chunks := make([]domain.Chunk, 0, len(byID))
	for _, c := range byID {
		chunks = append(chunks, c)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].PageNumber != chunks[j].PageNumber {
			return chunks[i].PageNumber < chunks[j].PageNumber
		}
		if chunks[i].StartChar != chunks[j].StartChar {
			return chunks[i].StartChar < chunks[j].StartChar
		}
		return chunks[i].ID < chunks[j].ID
	})

	bm25 := retriever.NewBM25Index(tokenizer, logger, cfg.K1, cfg.B)
	bm25.Index(chunks)

	embedded := 0
	if flat != nil {
		embedded = flat.Len()
	}
	logger.Debug("index: loaded from disk",
		"dir", dir,
		"chunks", len(chunks),
		"embedded", embedded,
		"model", manifest.ModelName)

	return &SearchIndex{
		Chunks:    chunks,
		ByID:      byID,
		BM25:      bm25,
		Vectors:   flat,
		ModelName: manifest.ModelName,
	}, nil
}

// Stats summarizes the indexed corpus.
func (ix *SearchIndex) Stats() domain.Stats {
	stats := ix.BM25.Stats()
	if ix.Vectors != nil {
		stats.Embedded = ix.Vectors.Len()
	}
	return stats
}
