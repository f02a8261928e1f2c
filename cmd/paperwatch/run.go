// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwatch/internal/history"
	"github.com/pdiddy/paperwatch/internal/library"
	"github.com/pdiddy/paperwatch/internal/logging"
	"github.com/pdiddy/paperwatch/internal/pipeline"
	"github.com/pdiddy/paperwatch/internal/source"
	"github.com/pdiddy/paperwatch/internal/summarize"
)

const defaultTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one collection pass",
	Long: `Run executes one full pipeline pass: collect candidates from arXiv and
the configured RSS feeds, skip papers already in the library, summarize the
genuinely new ones, and write them to the library with the summary attached
as a child note.

With --dry-run the pipeline classifies and summarizes exactly as a live run
would, but records planned writes in the report instead of performing them.

The exit code is 0 when the pass completed, even if individual papers
failed; those failures are listed in the report. The exit code is non-zero
only when the pass could not run at all or was aborted by a systemic
failure such as rejected credentials.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "classify and summarize, but write nothing")
	runCmd.Flags().Duration("lookback", 0, "collection window override (default from config, 24h)")
	runCmd.Flags().String("sources", "sources.yaml", "sources file with arXiv terms and feeds")
	runCmd.Flags().Bool("json", false, "print the report as JSON instead of text")
	runCmd.Flags().String("out", "", "also save the report to this YAML file")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if lookback, _ := cmd.Flags().GetDuration("lookback"); lookback > 0 {
		cfg.Lookback = lookback
	}

	sourcesPath, _ := cmd.Flags().GetString("sources")
	src, err := source.LoadFile(sourcesPath)
	if err != nil {
		return err
	}
	src.Apply(&cfg)

	logLevel, _ := cmd.Flags().GetString("log-level")
	log := logging.New(os.Stderr, logLevel)

	timeout := cfg.Arxiv.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	libClient, err := library.NewClient(client, cfg.Library)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Adapters: source.BuildAdapters(client, cfg),
		Checker:  libClient,
		Writer:   library.NewWriter(libClient),
		Log:      log,
	}
	if cfg.Summary.Enabled {
		summarizer, err := summarize.NewFromConfig(cfg.Summary)
		if err != nil {
			return err
		}
		deps.Summarizer = summarizer
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	report, runErr := pipeline.New(cfg, deps).Run(ctx, dryRun)

	// Archive the report, including partial reports from aborted runs.
	// The archive is observability only, so failures here just warn.
	if store, err := history.NewStore(cfg.History); err != nil {
		log.Warn("history archive unavailable", "error", err)
	} else {
		if err := store.Record(context.Background(), report); err != nil {
			log.Warn("archiving run report", "error", err)
		}
		_ = store.Close()
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := pipeline.FormatJSON(report, os.Stdout); err != nil {
			return err
		}
	} else {
		pipeline.FormatText(report, os.Stdout)
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := pipeline.WriteReportFile(report, out); err != nil {
			return err
		}
	}

	return runErr
}
