package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/p-breslin/enterprise-agents/internal/llm"
)

// AnthropicProvider implements llm.Provider for Anthropic Claude models.
type AnthropicProvider struct {
	client *anthropic.LLM
	config llm.ProviderConfig
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg llm.ProviderConfig) (*AnthropicProvider, error) {
	opts := []anthropic.Option{}
	if cfg.APIKey != "" {
		opts = append(opts, anthropic.WithToken(cfg.APIKey))
	}
	if cfg.DefaultModel != "" {
		opts = append(opts, anthropic.WithModel(cfg.DefaultModel))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("anthropic", err)
	}

	return &AnthropicProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends a completion request and returns the response text.
func (p *AnthropicProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	return complete(ctx, p.client, p.Name(), req)
}
