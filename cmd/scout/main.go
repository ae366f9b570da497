package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/llm"
	"github.com/use-agent/scout/search"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:          "scout",
		Short:        "Answer questions from several web sources",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("SCOUT_CONFIG"), "YAML config file (environment variables override it)")

	root.AddCommand(serveCMD(&cfgPath), queryCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the logger.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	initLogger(cfg.Log)
	return cfg, nil
}

// newPipeline wires the fetch engine and the completion client into an
// Aggregator.
func newPipeline(cfg *config.Config) (*search.Aggregator, *llm.Client) {
	llmClient := llm.NewClient(cfg.LLM)
	if !llmClient.Ready() {
		slog.Warn("no completion API key configured; every search will return the fallback answer")
	}
	fetcher := engine.NewHTTPEngine(cfg.Fetch)
	return search.NewAggregator(cfg.Search, fetcher, llmClient), llmClient
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stderr keeps stdout clean for `scout query` output.
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
