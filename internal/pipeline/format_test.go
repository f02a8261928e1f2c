package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwatch/pkg/types"
)

func reportFixture() types.RunReport {
	started := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	return types.RunReport{
		RunID:      "run-fixture",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		DryRun:     false,
		Lookback:   24 * time.Hour,
		Counts: types.RunCounts{
			CandidatesSeen:      6,
			DuplicatesSkipped:   2,
			NewPapers:           4,
			Summarized:          3,
			SummarizationFailed: 1,
			Written:             3,
			WriteFailed:         1,
		},
		Errors: []types.RunError{
			{Stage: "collecting", Kind: types.ErrFetchFailed, Source: "rss:Lab Blog", Message: "connection refused"},
			{Stage: "writing", Kind: types.ErrWriteFailed, Key: "arxiv:2508.00004", Source: "arxiv", Message: "item validation failed"},
		},
	}
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(reportFixture(), &buf)
	out := buf.String()

	for _, want := range []string{
		"run run-fixture (live)",
		"lookback: 24h0m0s",
		"candidates seen:      6",
		"duplicates skipped:   2",
		"new papers:           4",
		"write failed:         1",
		"2 problems:",
		"[fetch_failed] rss:Lab Blog: connection refused",
		"[write_failed] arxiv:2508.00004 (arxiv): item validation failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "would write") {
		t.Error("live report printed a planned-write section")
	}
}

func TestFormatTextDryRun(t *testing.T) {
	report := reportFixture()
	report.DryRun = true
	report.Errors = nil
	report.Planned = []types.PlannedWrite{
		{DedupKey: "arxiv:2508.00001", Title: "Paper One", HasSummary: true},
		{DedupKey: "rss:a1b2c3d4e5f60708", Title: strings.Repeat("Long Title ", 12), HasSummary: false},
	}

	var buf bytes.Buffer
	FormatText(report, &buf)
	out := buf.String()

	if !strings.Contains(out, "(dry-run)") {
		t.Errorf("output missing dry-run marker:\n%s", out)
	}
	if !strings.Contains(out, "would write 2 papers:") {
		t.Errorf("output missing planned-write header:\n%s", out)
	}
	if !strings.Contains(out, "arxiv:2508.00001") || !strings.Contains(out, "Paper One (+note)") {
		t.Errorf("output missing planned entry:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("long title was not truncated:\n%s", out)
	}
	if strings.Contains(out, "problems:") {
		t.Error("clean report printed a problems section")
	}
}

func TestFormatJSONRoundTrip(t *testing.T) {
	report := reportFixture()

	var buf bytes.Buffer
	if err := FormatJSON(report, &buf); err != nil {
		t.Fatalf("FormatJSON() error: %v", err)
	}

	var decoded types.RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if decoded.RunID != report.RunID {
		t.Errorf("RunID = %q, want %q", decoded.RunID, report.RunID)
	}
	if decoded.Counts != report.Counts {
		t.Errorf("Counts = %+v, want %+v", decoded.Counts, report.Counts)
	}
	if len(decoded.Errors) != 2 || decoded.Errors[1].Kind != types.ErrWriteFailed {
		t.Errorf("Errors = %+v", decoded.Errors)
	}
}

func TestWriteReportFile(t *testing.T) {
	report := reportFixture()
	path := filepath.Join(t.TempDir(), "report.yaml")

	if err := WriteReportFile(report, path); err != nil {
		t.Fatalf("WriteReportFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	var decoded types.RunReport
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding report file: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.Counts != report.Counts {
		t.Errorf("round trip = %+v, want %+v", decoded, report)
	}
	if decoded.Lookback != 24*time.Hour {
		t.Errorf("Lookback = %v, want 24h", decoded.Lookback)
	}
}
