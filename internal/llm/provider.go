// Package llm defines the model-call collaborator boundary for the
// extraction pipeline. Everything behind the Provider interface is opaque to
// the core: agents hand over a rendered prompt and receive raw text, and
// failures are classified as transient or permanent so callers can decide
// whether a retry is worthwhile.
package llm

import (
	"context"
	"fmt"
)

// Request carries one model invocation: a rendered prompt plus optional
// generation parameters. Model may be empty, in which case the provider's
// configured default is used.
type Request struct {
	Model       string  `json:"model,omitempty"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Provider is the minimal surface the pipeline needs from a language model
// service. Implementations wrap langchaingo clients and translate provider
// errors into the pipeline's transient/permanent taxonomy.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "anthropic", "ollama").
	Name() string

	// Complete sends a completion request and returns the raw response text.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderConfig contains the settings shared by all provider constructors.
type ProviderConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string `mapstructure:"default_model" yaml:"default_model"`
}

// Validate checks that the configuration names a provider.
func (c ProviderConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider config must have a name")
	}
	return nil
}
