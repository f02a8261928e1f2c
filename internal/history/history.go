// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives run reports in a local SQLite database.
// The archive is observability only: paper identity always comes from
// the remote library, never from here.
// Implements: prd006-pipeline (R5);
//
//	docs/ARCHITECTURE § Run History.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperwatch/pkg/types"
)

const defaultDBFile = "paperwatch.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive at cfg.Path, creating parent
// directories and the schema as needed (R5.1).
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			lookback TEXT,
			candidates_seen INTEGER NOT NULL,
			duplicates_skipped INTEGER NOT NULL,
			new_papers INTEGER NOT NULL,
			summarized INTEGER NOT NULL,
			summarization_failed INTEGER NOT NULL,
			written INTEGER NOT NULL,
			write_failed INTEGER NOT NULL,
			partial_writes INTEGER NOT NULL,
			errors TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record archives one run report (R5.2). Planned writes from dry runs
// are not archived; the archive keeps counts and error descriptors.
func (s *Store) Record(ctx context.Context, report types.RunReport) error {
	errorsJSON, err := json.Marshal(report.Errors)
	if err != nil {
		return fmt.Errorf("marshaling errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, dry_run, lookback,
			candidates_seen, duplicates_skipped, new_papers, summarized,
			summarization_failed, written, write_failed, partial_writes, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		report.DryRun,
		report.Lookback.String(),
		report.Counts.CandidatesSeen,
		report.Counts.DuplicatesSkipped,
		report.Counts.NewPapers,
		report.Counts.Summarized,
		report.Counts.SummarizationFailed,
		report.Counts.Written,
		report.Counts.WriteFailed,
		report.Counts.PartialWrites,
		string(errorsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Recent returns the latest n runs, newest first (R5.3).
func (s *Store) Recent(ctx context.Context, n int) ([]types.RunReport, error) {
	if n <= 0 {
		n = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, dry_run, lookback,
			candidates_seen, duplicates_skipped, new_papers, summarized,
			summarization_failed, written, write_failed, partial_writes, errors
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var reports []types.RunReport
	for rows.Next() {
		var (
			report     types.RunReport
			startedAt  string
			finishedAt string
			lookback   string
			errorsJSON string
		)
		if err := rows.Scan(
			&report.RunID, &startedAt, &finishedAt, &report.DryRun, &lookback,
			&report.Counts.CandidatesSeen, &report.Counts.DuplicatesSkipped,
			&report.Counts.NewPapers, &report.Counts.Summarized,
			&report.Counts.SummarizationFailed, &report.Counts.Written,
			&report.Counts.WriteFailed, &report.Counts.PartialWrites,
			&errorsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if report.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
		}
		if report.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finishedAt, err)
		}
		if d, err := time.ParseDuration(lookback); err == nil {
			report.Lookback = d
		}
		if errorsJSON != "" {
			if err := json.Unmarshal([]byte(errorsJSON), &report.Errors); err != nil {
				return nil, fmt.Errorf("parsing errors for run %s: %w", report.RunID, err)
			}
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return reports, nil
}
