// Package config loads and validates pipeline configuration: the runtime
// settings file (provider credentials, graph connection, coordinator limits)
// and the YAML definition tables that describe entity types, relationship
// types, output schemas, agents, workflows, and prompt templates.
package config

import (
	"time"

	"github.com/p-breslin/enterprise-agents/internal/llm"
)

// Config is the root runtime configuration for the pipeline.
type Config struct {
	LLM         LLMConfig         `mapstructure:"llm" yaml:"llm" validate:"required"`
	Graph       GraphConfig       `mapstructure:"graph" yaml:"graph"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator" yaml:"coordinator"`
	Tables      TablesConfig      `mapstructure:"tables" yaml:"tables"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Tracing     TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
}

// LLMConfig contains language model provider configuration. The provider
// entry is passed verbatim to the provider constructors; API keys support
// ${ENV_VAR} interpolation so credentials stay out of config files.
type LLMConfig struct {
	Provider    llm.ProviderConfig `mapstructure:"provider" yaml:"provider" validate:"required"`
	Temperature float64            `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int                `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
}

// GraphConfig contains the ArangoDB connection settings for the graph store.
// When DryRun is set, runs merge into an in-memory store instead and no
// connection is made.
type GraphConfig struct {
	Endpoints []string      `mapstructure:"endpoints" yaml:"endpoints"`
	Database  string        `mapstructure:"database" yaml:"database"`
	Username  string        `mapstructure:"username" yaml:"username"`
	Password  string        `mapstructure:"password" yaml:"password"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DryRun    bool          `mapstructure:"dry_run" yaml:"dry_run"`
}

// CoordinatorConfig contains workflow execution settings.
type CoordinatorConfig struct {
	// ParallelLimit caps how many agents run concurrently within a stage.
	ParallelLimit int `mapstructure:"parallel_limit" yaml:"parallel_limit" validate:"min=1,max=100"`

	// AgentTimeout bounds a single agent execution, including retries.
	AgentTimeout time.Duration `mapstructure:"agent_timeout" yaml:"agent_timeout"`

	// MaxTransientRetries bounds retries of an agent's model call on
	// transient failures (rate limits, timeouts, network errors).
	MaxTransientRetries int `mapstructure:"max_transient_retries" yaml:"max_transient_retries" validate:"min=0,max=10"`
}

// TablesConfig points at the YAML definition table files. Paths are
// resolved relative to the config file's directory unless absolute.
type TablesConfig struct {
	EntityTypes       string `mapstructure:"entity_types" yaml:"entity_types"`
	RelationshipTypes string `mapstructure:"relationship_types" yaml:"relationship_types"`
	OutputSchemas     string `mapstructure:"output_schemas" yaml:"output_schemas"`
	Agents            string `mapstructure:"agents" yaml:"agents"`
	Workflows         string `mapstructure:"workflows" yaml:"workflows"`
	Prompts           string `mapstructure:"prompts" yaml:"prompts"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=json text"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}
