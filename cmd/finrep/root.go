package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbellem/finrep"
	"github.com/tbellem/finrep/llm"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "finrep",
	Short: "Financial report analyzer and retrieval engine",
	Long: `finrep reconstructs reading-ordered paragraphs from a financial
report's page geometry, detects table rows, chunks the text for lexical
retrieval, and answers questions about the document with cited context.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the effective config from defaults, the optional
// config file, and environment overrides, in that order.
func loadConfig() (finrep.Config, error) {
	cfg := finrep.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = finrep.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("FINREP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FINREP_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("FINREP_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("FINREP_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// newLLMClient builds the HTTP LLM client, or nil when no endpoint is
// configured.
func newLLMClient(cfg finrep.Config) llm.Client {
	if cfg.LLM.BaseURL == "" {
		return nil
	}
	return llm.NewHTTPClient(llm.Config{
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Endpoint: cfg.LLM.Endpoint,
	})
}
