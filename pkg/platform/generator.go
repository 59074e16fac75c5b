package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/txn2/chat-platform/pkg/generation"
	"github.com/txn2/chat-platform/pkg/generation/anthropic"
	"github.com/txn2/chat-platform/pkg/generation/gemini"
	"github.com/txn2/chat-platform/pkg/generation/openai"
)

// newGenerator builds the provider named in cfg.
func newGenerator(ctx context.Context, cfg GenerationConfig) (generation.Generator, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case ProviderEcho:
		return generation.Echo{}, nil
	case ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		}), nil
	case ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		}), nil
	case ProviderGemini:
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
