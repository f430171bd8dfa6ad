package cli

import (
	"fmt"
	"path/filepath"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/analyzer"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/cache"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/chunker"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/embedding"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/retriever"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

// buildTokenizer returns the tokenizer every command must share. Stemming
// changes the term space, so indexing and querying have to agree on it; both
// read the same config flag here.
func buildTokenizer(cfg *config.Config) *analyzer.Tokenizer {
	tok := analyzer.NewTokenizer()
	if cfg.Retrieval.Stemming {
		tok.EnableStemming()
	}
	return tok
}

// buildChunker maps the chunking configuration onto a text chunker.
func buildChunker(cfg *config.Config) (*chunker.TextChunker, error) {
	strategy, err := chunker.ParseStrategy(cfg.Chunking.Strategy)
	if err != nil {
		return nil, err
	}
	return chunker.New(strategy, chunker.Config{
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
		MinChunkSize: cfg.Chunking.MinChunkSize,
	}), nil
}

// embeddingStack is the layered embedding pipeline: provider, in-memory
// cache, on-disk cache. The cache layers are nil when caching is off or the
// cache file cannot be opened.
type embeddingStack struct {
	embedder port.Embedder
	mem      *cache.CachedEmbedder
	disk     *cache.BoltCache
}

// Close flushes the in-memory cache to disk and closes the cache file.
func (s *embeddingStack) Close() {
	if s.disk == nil {
		return
	}
	if s.mem != nil {
		s.disk.Flush(s.mem)
	}
	s.disk.Close()
}

// buildEmbeddingStack creates the configured provider wrapped in the cache
// layers. An empty or "none" provider returns a nil stack: the index then
// works lexical-only. A broken cache file degrades to uncached embedding.
func buildEmbeddingStack(cfg *config.Config, root string) (*embeddingStack, error) {
	if cfg.Embedding.Provider == "" || cfg.Embedding.Provider == "none" {
		return nil, nil
	}

	base, err := embedding.New(
		cfg.Embedding.Provider,
		cfg.Embedding.Model,
		cfg.Embedding.Endpoint,
		cfg.Embedding.APIKeyEnv,
		cfg.Embedding.Dimension,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	if !cfg.Embedding.Cache {
		return &embeddingStack{embedder: base}, nil
	}

	mem := cache.NewCachedEmbedder(base, 0, log)
	stack := &embeddingStack{embedder: mem, mem: mem}

	cachePath := filepath.Join(config.IndexDir(root), cache.DBFileName)
	disk, err := cache.NewBoltCache(cachePath, base.ModelID(), log)
	if err != nil {
		log.Warn("embedding cache unavailable, embeddings will not persist", "path", cachePath, "error", err)
		return stack, nil
	}
	disk.Warm(mem)
	stack.disk = disk
	return stack, nil
}

// buildReranker maps the rerank configuration onto a backend. An empty
// provider means reranking stays off even when a query asks for it.
func buildReranker(cfg *config.Config, tok port.Tokenizer) (port.Reranker, error) {
	switch cfg.Rerank.Provider {
	case "":
		return nil, nil
	case "cohere":
		apiKeyEnv := cfg.Rerank.APIKeyEnv
		if apiKeyEnv == "" {
			apiKeyEnv = "COHERE_API_KEY"
		}
		return retriever.NewCohereReranker(apiKeyEnv, cfg.Rerank.Model, cfg.Rerank.Endpoint, log)
	case "overlap":
		return retriever.NewTermOverlapReranker(tok), nil
	}
	return nil, fmt.Errorf("unknown rerank provider: %s", cfg.Rerank.Provider)
}

// indexerConfig maps embedding tuning onto the build pipeline.
func indexerConfig(cfg *config.Config) usecase.IndexerConfig {
	return usecase.IndexerConfig{
		Workers:   cfg.Embedding.Workers,
		BatchSize: cfg.Embedding.BatchSize,
	}
}

// retrieveOptions builds the query options from config defaults.
func retrieveOptions(cfg *config.Config) (usecase.Options, error) {
	mode, err := usecase.ParseMode(cfg.Retrieval.Mode)
	if err != nil {
		return usecase.Options{}, err
	}
	return usecase.Options{
		TopK:          cfg.Retrieval.TopK,
		MinScore:      cfg.Retrieval.MinScore,
		Mode:          mode,
		KeywordWeight: cfg.Retrieval.KeywordWeight,
		Fusion:        cfg.Retrieval.Fusion,
		Rerank:        cfg.Retrieval.UseRerank,
		MMR:           cfg.Retrieval.UseMMR,
		MMRDiversity:  cfg.Retrieval.MMRDiversity,
	}, nil
}
