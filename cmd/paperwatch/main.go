// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperwatch CLI.
// Implements: prd006-pipeline (CLI surface), prd001-collection R4
// (sources file).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperwatch/internal/secrets"
	"github.com/pdiddy/paperwatch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, then the .secrets/ value, then
// the environment. godotenv populates the environment from .env before
// this runs, so .env keys resolve here too.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return os.Getenv(key)
}

// aiKeyName maps a model name to the conventional environment variable
// for its provider's API key.
func aiKeyName(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "claude"):
		return "ANTHROPIC_API_KEY"
	case strings.Contains(m, "gpt"):
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// rootCmd is the base command for the paperwatch CLI.
var rootCmd = &cobra.Command{
	Use:   "paperwatch",
	Short: "Scheduled research-paper collection into a Zotero library",
	Long: `paperwatch watches arXiv categories and RSS feeds for new research
papers, skips everything already in the reference library, summarizes the
genuinely new papers with an AI model, and files them into Zotero with the
summary attached as a note.

The pipeline is built to run unattended on a schedule: each pass produces a
run report, and a paper that entered the library once is never ingested
again, keyed by a stable dedup key stored on the item.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperwatch.yaml or ~/.config/paperwatch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperwatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperwatch"))
		}
	}

	viper.SetEnvPrefix("PAPERWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the pipeline configuration from viper, with API
// keys resolved through .secrets/ and the environment. The sources file
// (categories, keywords, feeds) is applied separately by the run command.
func loadConfig() types.PipelineConfig {
	viper.SetDefault("lookback", "24h")
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.user_agent", "paperwatch/"+version)
	viper.SetDefault("summary.enabled", true)
	viper.SetDefault("summary.model", "claude-3-5-haiku-latest")
	viper.SetDefault("library.library_type", "user")
	viper.SetDefault("history.path", "paperwatch.db")

	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: viper.GetString("http.user_agent"),
	}

	model := viper.GetString("summary.model")

	return types.PipelineConfig{
		Lookback: viper.GetDuration("lookback"),
		Arxiv: types.ArxivConfig{
			HTTPConfig:      httpCfg,
			MaxResults:      viper.GetInt("arxiv.max_results"),
			RequestInterval: viper.GetDuration("arxiv.request_interval"),
		},
		Feeds: types.FeedsConfig{
			HTTPConfig: httpCfg,
		},
		Summary: types.SummaryConfig{
			AIConfig: types.AIConfig{
				Model:      model,
				APIKey:     secretDefault(aiKeyName(model), viper.GetString("summary.api_key")),
				MaxRetries: viper.GetInt("summary.max_retries"),
			},
			Enabled:           viper.GetBool("summary.enabled"),
			MaxConcurrent:     viper.GetInt("summary.max_concurrent"),
			RequestsPerSecond: viper.GetFloat64("summary.requests_per_second"),
			PromptTemplate:    viper.GetString("summary.prompt_template"),
		},
		Library: types.LibraryConfig{
			HTTPConfig:  httpCfg,
			LibraryID:   viper.GetString("library.library_id"),
			LibraryType: types.LibraryType(viper.GetString("library.library_type")),
			APIKey:      secretDefault("ZOTERO_API_KEY", viper.GetString("library.api_key")),
			BatchSize:   viper.GetInt("library.batch_size"),
		},
		History: types.HistoryConfig{
			Path: viper.GetString("history.path"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
