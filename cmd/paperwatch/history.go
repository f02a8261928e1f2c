// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwatch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the local archive",
	Long: `History lists recent run reports from the local SQLite archive, newest
first. The archive records statistics only; the library itself is always
the authority on which papers exist.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to show")
	historyCmd.Flags().Bool("json", false, "output reports as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	reports, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	if len(reports) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, r := range reports {
		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}
		problems := ""
		if n := len(r.Errors); n > 0 {
			problems = fmt.Sprintf("  problems=%d", n)
		}
		fmt.Printf("%s  %-7s  seen=%-4d new=%-4d written=%-4d%s\n",
			r.StartedAt.Local().Format(time.DateTime), mode,
			r.Counts.CandidatesSeen, r.Counts.NewPapers, r.Counts.Written, problems)
	}
	return nil
}
