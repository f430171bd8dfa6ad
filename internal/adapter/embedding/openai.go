package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

const openaiMaxBatch = 100

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API or
// any endpoint compatible with it.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
	log    *slog.Logger
}

func NewOpenAIEmbedder(apiKeyEnv, model string, logger *slog.Logger) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "", logger)
}

// NewOpenAICompatibleEmbedder reads the API key from the named environment
// variable. An empty baseURL targets api.openai.com.
func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string, logger *slog.Logger) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    openaiDimension(model),
		log:    logger,
	}, nil
}

func openaiDimension(model string) int {
	switch model {
	case string(openai.LargeEmbedding3):
		return 3072
	case string(openai.SmallEmbedding3), string(openai.AdaEmbeddingV2):
		return 1536
	}
	return 1536
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += openaiMaxBatch {
		end := i + openaiMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, &domain.ProviderUnavailableError{Provider: "openai", Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response holds %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(out) {
			return nil, fmt.Errorf("embedding response index %d out of range", data.Index)
		}
		out[data.Index] = data.Embedding
	}

	e.log.Debug("openai: embedded batch",
		"model", e.model,
		"texts", len(texts),
		"tokens", resp.Usage.TotalTokens)
	return out, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) ModelID() string { return e.model }
