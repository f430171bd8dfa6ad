package embedding

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

// Provider names accepted in config files and CLI flags.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

// New builds the embedding provider selected by name. baseURL overrides the
// provider's default endpoint; apiKeyEnv names the environment variable
// holding the key for hosted providers; dimension only applies to the hash
// provider.
func New(provider, model, baseURL, apiKeyEnv string, dimension int, logger *slog.Logger) (port.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		if apiKeyEnv == "" {
			apiKeyEnv = "OPENAI_API_KEY"
		}
		return NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL, logger)
	case ProviderOllama:
		return NewOllamaEmbedder(baseURL, model, logger)
	case ProviderHash:
		return NewHashEmbedder(dimension), nil
	}
	return nil, fmt.Errorf("unknown embedding provider: %s", provider)
}
