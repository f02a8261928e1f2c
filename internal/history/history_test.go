package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/paperwatch/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.HistoryConfig{
		Path: filepath.Join(t.TempDir(), "history", "paperwatch.db"),
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(runID string, startedAt time.Time) types.RunReport {
	return types.RunReport{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(42 * time.Second),
		Lookback:   24 * time.Hour,
		Counts: types.RunCounts{
			CandidatesSeen:    12,
			DuplicatesSkipped: 7,
			NewPapers:         5,
			Summarized:        4,
			Written:           4,
			PartialWrites:     1,
		},
		Errors: []types.RunError{
			{
				Stage:   "writing",
				Kind:    types.ErrPartialWrite,
				Key:     "arxiv:2301.00001",
				Message: "attaching note: library API returned 500",
			},
		},
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		report := sampleReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := store.Record(ctx, report); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d runs, want 2", len(recent))
	}
	if recent[0].RunID != "run-2" || recent[1].RunID != "run-1" {
		t.Errorf("order = [%s, %s], want newest first", recent[0].RunID, recent[1].RunID)
	}

	got := recent[0]
	if !got.StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("StartedAt = %v", got.StartedAt)
	}
	if got.Lookback != 24*time.Hour {
		t.Errorf("Lookback = %v", got.Lookback)
	}
	if got.Counts.CandidatesSeen != 12 || got.Counts.PartialWrites != 1 {
		t.Errorf("Counts = %+v", got.Counts)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("Errors = %+v, want 1 entry", got.Errors)
	}
	if got.Errors[0].Kind != types.ErrPartialWrite || got.Errors[0].Key != "arxiv:2301.00001" {
		t.Errorf("Errors[0] = %+v", got.Errors[0])
	}
}

func TestRecordDryRunFlag(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	report := sampleReport("dry-1", time.Now().UTC())
	report.DryRun = true
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	recent, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent) != 1 || !recent[0].DryRun {
		t.Errorf("recent = %+v, want dry_run preserved", recent)
	}
}

func TestRecentEmpty(t *testing.T) {
	store := testStore(t)

	recent, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("got %d runs from empty archive", len(recent))
	}
}

func TestRecordDuplicateRunID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	report := sampleReport("run-dup", time.Now().UTC())
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if err := store.Record(ctx, report); err == nil {
		t.Error("Record() accepted a duplicate run_id")
	}
}

func TestNoErrorsRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	report := sampleReport("run-clean", time.Now().UTC())
	report.Errors = nil
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	recent, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent[0].Errors) != 0 {
		t.Errorf("Errors = %+v, want none", recent[0].Errors)
	}
}
