// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ErrorKind classifies a non-fatal error recorded during a run.
// Per prd006-pipeline R4.1.
type ErrorKind string

const (
	// ErrFetchFailed marks an unreachable or failing source; the run
	// proceeds with that source contributing nothing.
	ErrFetchFailed ErrorKind = "fetch_failed"

	// ErrMalformedRecord marks a record missing required fields; the
	// record is skipped.
	ErrMalformedRecord ErrorKind = "malformed_record"

	// ErrDedupCheckFailed marks a failed library existence check; the
	// whole batch is treated as unknown and nothing is written.
	ErrDedupCheckFailed ErrorKind = "dedup_check_failed"

	// ErrSummarizationFailed marks a paper whose summary could not be
	// produced; the paper is still written, without a note.
	ErrSummarizationFailed ErrorKind = "summarization_failed"

	// ErrWriteFailed marks a paper whose library item could not be
	// created.
	ErrWriteFailed ErrorKind = "write_failed"

	// ErrPartialWrite marks a paper whose item was created but whose
	// note could not be attached. The item exists and must never be
	// re-created.
	ErrPartialWrite ErrorKind = "partial_write"
)

// RunError is one recorded failure. Errors keep their occurrence order
// in the report.
type RunError struct {
	// Stage names the pipeline stage that recorded the error.
	Stage string `json:"stage" yaml:"stage"`

	// Kind classifies the error.
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Key is the dedup key of the affected paper, when one exists.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Source identifies the affected source for pre-normalization
	// errors (adapter name or feed URL).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Message is the underlying error text.
	Message string `json:"message" yaml:"message"`
}

// RunCounts aggregates per-category totals for one run.
// Per prd006-pipeline R3.2.
type RunCounts struct {
	// CandidatesSeen counts raw candidates across all sources that fall
	// within the lookback window, before normalization.
	CandidatesSeen int `json:"candidates_seen" yaml:"candidates_seen"`

	// DuplicatesSkipped counts candidates already present in the
	// library or duplicated within the batch.
	DuplicatesSkipped int `json:"duplicates_skipped" yaml:"duplicates_skipped"`

	// NewPapers counts candidates classified as new this run.
	NewPapers int `json:"new_papers" yaml:"new_papers"`

	// Summarized counts papers with a successfully generated summary.
	Summarized int `json:"summarized" yaml:"summarized"`

	// SummarizationFailed counts papers whose summary failed after
	// retries; they proceed without one.
	SummarizationFailed int `json:"summarization_failed" yaml:"summarization_failed"`

	// Written counts fully committed papers (item plus note when due).
	Written int `json:"written" yaml:"written"`

	// WriteFailed counts papers whose item creation failed.
	WriteFailed int `json:"write_failed" yaml:"write_failed"`

	// PartialWrites counts papers whose item was created but whose note
	// attachment failed.
	PartialWrites int `json:"partial_writes" yaml:"partial_writes"`
}

// HasFailures reports whether any per-item failures were recorded.
func (c RunCounts) HasFailures() bool {
	return c.SummarizationFailed > 0 || c.WriteFailed > 0 || c.PartialWrites > 0
}

// PlannedWrite is one write the pipeline would have performed in
// dry-run mode.
type PlannedWrite struct {
	// DedupKey is the stable identity of the paper.
	DedupKey string `json:"dedup_key" yaml:"dedup_key"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// HasSummary reports whether a note would be attached.
	HasSummary bool `json:"has_summary" yaml:"has_summary"`
}

// RunReport is the outcome of one pipeline execution. Exactly one
// report is produced per run, dry or live. Persisting reports is the
// caller's concern; the CLI archives them in the local history store.
// Per prd006-pipeline R3.1-R3.4.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id" yaml:"run_id"`

	// StartedAt and FinishedAt bound the run wall-clock time.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// DryRun reports whether the write stage was replaced by a recorder.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Lookback is the collection window the run used.
	Lookback time.Duration `json:"lookback" yaml:"lookback"`

	// Counts aggregates the per-category totals.
	Counts RunCounts `json:"counts" yaml:"counts"`

	// Errors lists recorded failures in occurrence order.
	Errors []RunError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Planned lists the writes a dry run would have performed.
	Planned []PlannedWrite `json:"planned,omitempty" yaml:"planned,omitempty"`
}
