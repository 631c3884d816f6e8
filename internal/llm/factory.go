package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FactoryConfig carries the credentials and timeouts the factory needs to
// construct providers.
type FactoryConfig struct {
	OpenAIAPIKey string
	GeminiAPIKey string
	Timeout      time.Duration
}

// NewProvider builds the provider for an explicit provider name. The
// synthetic provider is always available and needs no credentials.
func NewProvider(ctx context.Context, name string, cfg FactoryConfig) (Provider, error) {
	switch strings.ToLower(name) {
	case providerNameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not configured")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Timeout), nil
	case providerNameGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not configured")
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Timeout)
	case providerNameSynthetic:
		return NewSyntheticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// ProviderNameForModel infers the provider from a model identifier. Model
// names the inference does not recognize fall back to the synthetic
// provider so generation always has a working backend.
func ProviderNameForModel(model string) string {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return providerNameOpenAI
	case strings.HasPrefix(model, "gemini-"):
		return providerNameGemini
	default:
		return providerNameSynthetic
	}
}
