package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/p-breslin/enterprise-agents/internal/llm"
)

// OpenAIProvider implements llm.Provider for OpenAI models, including
// OpenAI-compatible endpoints selected via BaseURL.
type OpenAIProvider struct {
	client *openai.LLM
	config llm.ProviderConfig
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg llm.ProviderConfig) (*OpenAIProvider, error) {
	opts := []openai.Option{}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.DefaultModel != "" {
		opts = append(opts, openai.WithModel(cfg.DefaultModel))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	return &OpenAIProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete sends a completion request and returns the response text.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	return complete(ctx, p.client, p.Name(), req)
}
