// Package llm talks to an external text-generation service. Responses are
// free text; callers decode them with a Schema and treat the rows as
// best-effort enrichment.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bizops-dashboard/internal/config"
)

var ErrMissingAPIKey = errors.New("llm: missing API key")

// Provider sends one prompt and returns the raw completion text. Calls are
// never retried.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
	Name() string
}

// NewProvider builds the provider selected in cfg. A missing credential is
// an error so that startup fails instead of degrading silently.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg, &http.Client{Timeout: cfg.Timeout}), nil
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
