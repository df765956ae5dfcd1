package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options configures the active provider. Exactly one logical provider
// is active at a time; all providers expose the same Client interface.
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// NewClient builds the provider adapter named by opts.Provider.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "anthropic"
	}

	switch provider {
	case "anthropic":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("anthropic api key is required")
		}
		return NewAnthropicClient(opts.APIKey, opts.Model, opts.BaseURL, opts.MaxTokens, opts.Timeout), nil
	case "openai":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL, opts.MaxTokens, opts.Timeout), nil
	case "gemini":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("gemini api key is required")
		}
		return NewGeminiClient(ctx, opts.APIKey, opts.Model, opts.MaxTokens, opts.Timeout)
	case "ollama":
		return NewOllamaClient(opts.Model, opts.BaseURL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", opts.Provider)
	}
}
