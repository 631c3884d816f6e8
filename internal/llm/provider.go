package llm

import (
	"context"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// Provider is the abstraction over generative backends. Concrete variants are
// LLM clients (OpenAI, Gemini) or the rule-based synthetic generator; the
// orchestrator treats them identically. Each Generate call is a single
// request/response exchange.
type Provider interface {
	// Generate produces raw musical output for the request. Transport
	// failures return ErrProvider, bounded-wait expiry returns
	// ErrProviderTimeout; output that cannot be parsed into a fragment
	// surfaces later as MalformedOutputError from ParseFragment.
	Generate(ctx context.Context, request *ProviderRequest) (*RawOutput, error)

	// Name returns the provider name (e.g., "openai", "gemini", "synthetic")
	Name() string
}

// FragmentSpec carries the structured musical parameters of one generation.
// LLM providers see them rendered into the prompt; the synthetic provider
// reads them directly.
type FragmentSpec struct {
	Key        music.KeySignature
	Time       music.TimeSignature
	Tempo      float64
	Measures   int
	Style      string
	Difficulty string
	Seed       int64
}

// ProviderRequest contains all parameters needed for one provider exchange.
type ProviderRequest struct {
	Model        string
	SystemPrompt string
	InputArray   []map[string]any
	Spec         FragmentSpec
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure.
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// RawOutput is the unparsed result of a provider exchange.
type RawOutput struct {
	Text     string         `json:"text"`
	Provider string         `json:"provider"`
	Usage    map[string]any `json:"usage,omitempty"`
}
