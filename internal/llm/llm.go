// Package llm provides summarization providers.
//
// A Summarizer is the narrow contract the engine depends on: given a
// prompt and an output token budget, return a natural-language summary
// string. Providers may fail or truncate; failures surface as
// ProviderError and the caller applies the retry-then-degrade policy.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	// DefaultOpenAIModel is used when no model is configured
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOllamaModel is used when no model is configured
	DefaultOllamaModel = "qwen3:8b"
)

// ErrEmptyPrompt is returned when a summarization request has no prompt
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Summarizer generates a natural-language summary for a prompt
type Summarizer interface {
	// Summarize returns summary text bounded by maxTokens output tokens
	Summarize(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string
}

// New creates a summarizer from run configuration
func New(cfg config.Config) (Summarizer, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case ProviderOpenAI:
		return NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.LLMModel)
	case ProviderOllama:
		return NewOllamaSummarizer(cfg.OllamaURL, cfg.LLMModel), nil
	case ProviderLocal:
		return NewLocalSummarizer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", types.ErrConfig, cfg.LLMProvider)
	}
}
