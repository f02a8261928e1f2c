// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// FormatText writes the report as a human-readable summary to w (R5.2).
func FormatText(report types.RunReport, w io.Writer) {
	mode := "live"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "run %s (%s)\n", report.RunID, mode)
	fmt.Fprintf(w, "started:  %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "finished: %s (took %s)\n", report.FinishedAt.Format(time.RFC3339),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "lookback: %s\n\n", report.Lookback)

	c := report.Counts
	fmt.Fprintf(w, "candidates seen:      %d\n", c.CandidatesSeen)
	fmt.Fprintf(w, "duplicates skipped:   %d\n", c.DuplicatesSkipped)
	fmt.Fprintf(w, "new papers:           %d\n", c.NewPapers)
	fmt.Fprintf(w, "summarized:           %d\n", c.Summarized)
	fmt.Fprintf(w, "summarization failed: %d\n", c.SummarizationFailed)
	fmt.Fprintf(w, "written:              %d\n", c.Written)
	fmt.Fprintf(w, "write failed:         %d\n", c.WriteFailed)
	fmt.Fprintf(w, "partial writes:       %d\n", c.PartialWrites)

	if report.DryRun && len(report.Planned) > 0 {
		fmt.Fprintf(w, "\nwould write %d papers:\n", len(report.Planned))
		for _, planned := range report.Planned {
			note := ""
			if planned.HasSummary {
				note = " (+note)"
			}
			title := planned.Title
			if len(title) > 70 {
				title = title[:67] + "..."
			}
			fmt.Fprintf(w, "  %-22s  %s%s\n", planned.DedupKey, title, note)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%d problems:\n", len(report.Errors))
		for _, e := range report.Errors {
			loc := e.Key
			if loc == "" {
				loc = e.Source
			} else if e.Source != "" {
				loc = fmt.Sprintf("%s (%s)", e.Key, e.Source)
			}
			if loc == "" {
				fmt.Fprintf(w, "  [%s] %s\n", e.Kind, e.Message)
				continue
			}
			fmt.Fprintf(w, "  [%s] %s: %s\n", e.Kind, loc, e.Message)
		}
	}
}

// FormatJSON writes the full report as indented JSON to w (R5.3).
func FormatJSON(report types.RunReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteReportFile saves the report to path as YAML so later tooling can
// pick it up (R5.4).
func WriteReportFile(report types.RunReport, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
