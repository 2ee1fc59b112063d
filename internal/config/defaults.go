package config

import (
	"time"

	"github.com/p-breslin/enterprise-agents/internal/llm"
)

// DefaultConfig returns a Config with sensible default values. The defaults
// target a local Ollama instance so the pipeline works out of the box without
// credentials; production deployments override llm.provider in the config
// file.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: llm.ProviderConfig{
				Name:         "ollama",
				DefaultModel: "llama3",
			},
			Temperature: 0.0,
			MaxTokens:   4096,
		},
		Graph: GraphConfig{
			Endpoints: []string{"http://localhost:8529"},
			Database:  "enterprise",
			Username:  "root",
			Timeout:   30 * time.Second,
			DryRun:    false,
		},
		Coordinator: CoordinatorConfig{
			ParallelLimit:       4,
			AgentTimeout:        5 * time.Minute,
			MaxTransientRetries: 3,
		},
		Tables: TablesConfig{
			EntityTypes:       "entity_types.yaml",
			RelationshipTypes: "relationship_types.yaml",
			OutputSchemas:     "output_schemas.yaml",
			Agents:            "agents.yaml",
			Workflows:         "workflows.yaml",
			Prompts:           "prompts.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "",
		},
	}
}
