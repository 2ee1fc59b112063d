package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-breslin/enterprise-agents/internal/config"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "enterprise-agents",
	Short: "Dependency-ordered multi-agent extraction pipeline",
	Long: `enterprise-agents runs LLM agent workflows that extract structured
entities from unstructured documents and merge them into an ArangoDB
knowledge graph.

Agents are declared in YAML tables along with their prompts, output
schemas, and dependencies. The coordinator orders agents by their
declared dependencies, runs independent agents concurrently, and
produces a structured run report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to the runtime config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadRuntime loads the config file and the definition tables it points at.
func loadRuntime() (*config.Config, *config.TableSet, error) {
	cfg, err := config.NewLoader(config.NewValidator()).Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	set, err := config.LoadTables(cfg.Tables)
	if err != nil {
		return nil, nil, err
	}

	return cfg, set, nil
}

// newLogger builds the process logger from the logging config. --verbose
// overrides the configured level.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
