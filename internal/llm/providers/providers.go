// Package providers contains the langchaingo-backed implementations of the
// llm.Provider interface. One file per upstream service; shared request and
// error translation plumbing lives here.
package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/p-breslin/enterprise-agents/internal/llm"
)

// New constructs the provider named in cfg.Name.
func New(cfg llm.ProviderConfig) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Name {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, llm.NewProviderNotFoundError(cfg.Name)
	}
}

// complete runs one completion against a langchaingo model and returns the
// first choice's text, with errors translated into the pipeline taxonomy.
func complete(ctx context.Context, model llms.Model, providerName string, req llm.Request) (string, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))

	opts := buildCallOptions(req)

	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", llm.TranslateError(providerName, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewProviderUnavailableError(providerName, nil)
	}
	return resp.Choices[0].Content, nil
}

// buildCallOptions converts request parameters to langchaingo call options.
func buildCallOptions(req llm.Request) []llms.CallOption {
	var opts []llms.CallOption
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	return opts
}
