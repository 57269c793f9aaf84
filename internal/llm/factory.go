package llm

import (
	"fmt"
	"time"
)

// ProviderConfig selects and configures an LLM provider.
type ProviderConfig struct {
	// Provider is "ollama" (default) or "openai".
	Provider string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey authenticates hosted providers. Ignored for Ollama.
	APIKey string

	// Model is the model name; each provider has its own default.
	Model string

	// Timeout bounds a single completion request.
	Timeout time.Duration
}

// NewTextGenerator creates the appropriate TextGenerator for the config.
func NewTextGenerator(cfg ProviderConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
