package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document index.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Context   ContextConfig   `yaml:"context"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig controls how page text is split before indexing.
type ChunkingConfig struct {
	Strategy     string `yaml:"strategy"` // "fixed", "sentence", "paragraph", "recursive", "section"
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	MinChunkSize int    `yaml:"min_chunk_size"`
}

// RetrievalConfig holds the default query options. Stemming changes the
// term space, so an index built with it must be queried with it; both paths
// read this flag.
type RetrievalConfig struct {
	Mode          string  `yaml:"mode"` // "hybrid", "lexical", "vector"
	TopK          int     `yaml:"top_k"`
	MinScore      float64 `yaml:"min_score"`
	KeywordWeight float64 `yaml:"keyword_weight"`
	Fusion        string  `yaml:"fusion"` // "weighted", "rrf"
	UseRerank     bool    `yaml:"use_rerank"`
	UseMMR        bool    `yaml:"use_mmr"`
	MMRDiversity  float64 `yaml:"mmr_diversity"`
	Stemming      bool    `yaml:"stemming"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // "openai", "ollama", "hash"
	Model        string `yaml:"model"`
	Dimension    int    `yaml:"dimension"`
	Endpoint     string `yaml:"endpoint"`    // empty = provider default
	APIKeyEnv    string `yaml:"api_key_env"` // environment variable holding the API key
	Workers      int    `yaml:"workers"`
	BatchSize    int    `yaml:"batch_size"`
	QueryTimeout string `yaml:"query_timeout"` // Go duration string, e.g. "10s"
	Cache        bool   `yaml:"cache"`
}

// RerankConfig selects the reranking backend. An empty provider disables
// reranking even when queries ask for it.
type RerankConfig struct {
	Provider  string `yaml:"provider"` // "", "cohere", "overlap"
	Model     string `yaml:"model"`
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// ContextConfig tunes context assembly: the token budget of the block and
// how many neighboring chunks each hit pulls in.
type ContextConfig struct {
	Budget int `yaml:"budget"`
	Expand int `yaml:"expand"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Strategy:     "recursive",
			ChunkSize:    512,
			ChunkOverlap: 50,
			MinChunkSize: 100,
		},
		Retrieval: RetrievalConfig{
			Mode:          "hybrid",
			TopK:          5,
			MinScore:      0.0,
			KeywordWeight: 0.3,
			Fusion:        "weighted",
			UseRerank:     false,
			UseMMR:        false,
			MMRDiversity:  0.3,
		},
		Embedding: EmbeddingConfig{
			Provider:     "ollama",
			Model:        "nomic-embed-text",
			Dimension:    768,
			Endpoint:     "",
			APIKeyEnv:    "OPENAI_API_KEY",
			Workers:      4,
			BatchSize:    100,
			QueryTimeout: "10s",
			Cache:        true,
		},
		Rerank: RerankConfig{
			Provider:  "",
			Model:     "rerank-multilingual-v3.0",
			Endpoint:  "",
			APIKeyEnv: "COHERE_API_KEY",
		},
		Context: ContextConfig{
			Budget: 2000,
			Expand: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file over the defaults, so settings
// absent from the file keep their default values. A missing file returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory, trying docindex.yaml
// first and .docindex/config.yaml second. Neither present returns defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values that would only fail later, deep inside a build
// or a query.
func (c *Config) Validate() error {
	switch c.Chunking.Strategy {
	case "fixed", "sentence", "paragraph", "recursive", "section":
	default:
		return fmt.Errorf("unknown chunking strategy: %q", c.Chunking.Strategy)
	}

	switch c.Retrieval.Mode {
	case "", "hybrid", "lexical", "bm25", "vector", "semantic":
	default:
		return fmt.Errorf("unknown retrieval mode: %q", c.Retrieval.Mode)
	}

	switch c.Retrieval.Fusion {
	case "", "weighted", "rrf":
	default:
		return fmt.Errorf("unknown fusion strategy: %q", c.Retrieval.Fusion)
	}

	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.Retrieval.TopK)
	}
	if w := c.Retrieval.KeywordWeight; w < 0 || w > 1 {
		return fmt.Errorf("keyword_weight must be within [0, 1], got %g", w)
	}

	if t := c.Embedding.QueryTimeout; t != "" {
		if _, err := time.ParseDuration(t); err != nil {
			return fmt.Errorf("invalid query_timeout: %w", err)
		}
	}

	if c.Context.Budget < 0 {
		return fmt.Errorf("context budget must not be negative, got %d", c.Context.Budget)
	}
	if c.Context.Expand < 0 {
		return fmt.Errorf("context expand must not be negative, got %d", c.Context.Expand)
	}

	return nil
}

// ParseQueryTimeout returns the embedding query timeout. Empty or malformed
// values fall back to 10 seconds; Validate reports the malformed ones.
func (e EmbeddingConfig) ParseQueryTimeout() time.Duration {
	if e.QueryTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(e.QueryTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// IndexDir returns the directory holding the persisted index for root.
func IndexDir(root string) string {
	return filepath.Join(root, ".docindex")
}

// EnsureIndexDir creates the index directory under root if needed.
func EnsureIndexDir(root string) error {
	return os.MkdirAll(IndexDir(root), 0755)
}
