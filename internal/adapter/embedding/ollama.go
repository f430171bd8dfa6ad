package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaEmbedder generates embeddings with a local Ollama server.
type OllamaEmbedder struct {
	client *api.Client
	model  string
	dim    int
	log    *slog.Logger
}

func NewOllamaEmbedder(host, model string, logger *slog.Logger) (*OllamaEmbedder, error) {
	if host == "" {
		host = defaultOllamaHost
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}

	return &OllamaEmbedder{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
		dim:    ollamaDimension(model),
		log:    logger,
	}, nil
}

func ollamaDimension(model string) int {
	switch model {
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	}
	return 768
}

// Embed sends one text per request and honors context cancellation between
// items, so a long batch can be abandoned midway.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := e.client.Embed(ctx, &api.EmbedRequest{
			Model: e.model,
			Input: text,
		})
		if err != nil {
			return nil, &domain.ProviderUnavailableError{Provider: "ollama", Err: err}
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("ollama returned no embedding for input %d", i)
		}
		out[i] = resp.Embeddings[0]
	}

	e.log.Debug("ollama: embedded batch", "model", e.model, "texts", len(texts))
	return out, nil
}

// Available reports whether the Ollama server answers within two seconds.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := e.client.Version(ctx)
	return err == nil
}

func (e *OllamaEmbedder) Dimension() int { return e.dim }

func (e *OllamaEmbedder) ModelID() string { return e.model }
