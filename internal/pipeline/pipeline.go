// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one collection run end to end: collect raw
// candidates, normalize them, split new papers from known ones against
// the library, summarize, write, and report.
// Implements: prd006-pipeline (R1-R4);
//
//	docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paperwatch/internal/dedup"
	"github.com/pdiddy/paperwatch/internal/library"
	"github.com/pdiddy/paperwatch/internal/normalize"
	"github.com/pdiddy/paperwatch/internal/source"
	"github.com/pdiddy/paperwatch/internal/summarize"
	"github.com/pdiddy/paperwatch/pkg/types"
)

const defaultLookback = 24 * time.Hour

// Stage names one pipeline state. A run moves through every stage in
// order; only Summarizing may be bypassed (when disabled), and a dry run
// replaces Writing's side effects with planned-write records (R1.2).
type Stage string

const (
	StageIdle          Stage = "idle"
	StageCollecting    Stage = "collecting"
	StageDeduplicating Stage = "deduplicating"
	StageSummarizing   Stage = "summarizing"
	StageWriting       Stage = "writing"
	StageReporting     Stage = "reporting"
)

// Summarizer is the summarization stage as the pipeline consumes it.
type Summarizer interface {
	SummarizeAll(ctx context.Context, papers []types.Paper) []summarize.Outcome
}

// Writer commits one paper (and optional summary) to the library.
type Writer interface {
	Commit(ctx context.Context, paper types.Paper, summary *types.Summary) (library.Result, error)
}

// Deps carries the pipeline's collaborators. Summarizer may be nil when
// summarization is disabled.
type Deps struct {
	Adapters   []source.Adapter
	Checker    dedup.KeyChecker
	Summarizer Summarizer
	Writer     Writer
	Log        *slog.Logger
}

// Pipeline runs the collection state machine. The produced RunReport is
// returned, not persisted; archiving it is the caller's concern.
type Pipeline struct {
	cfg        types.PipelineConfig
	adapters   []source.Adapter
	filter     *dedup.Filter
	summarizer Summarizer
	writer     Writer
	log        *slog.Logger
	stage      Stage

	now func() time.Time
}

func New(cfg types.PipelineConfig, deps Deps) *Pipeline {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		adapters:   deps.Adapters,
		filter:     &dedup.Filter{Checker: deps.Checker},
		summarizer: deps.Summarizer,
		writer:     deps.Writer,
		log:        log,
		stage:      StageIdle,
		now:        time.Now,
	}
}

func (p *Pipeline) setStage(s Stage) {
	p.stage = s
	p.log.Debug("stage transition", "stage", string(s))
}

// Run executes one full pass. Per-source and per-paper failures are
// recorded in the report and do not abort the run; the returned error is
// non-nil only for systemic failures (rejected credentials, canceled
// context), where continuing per-item cannot succeed (R4.3). Even then
// the report reflects everything done up to the abort.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (report types.RunReport, err error) {
	lookback := p.cfg.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}

	report = types.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
		DryRun:    dryRun,
		Lookback:  lookback,
	}
	defer func() {
		p.setStage(StageReporting)
		report.FinishedAt = p.now().UTC()
		p.setStage(StageIdle)
	}()

	p.log.Info("run started", "run_id", report.RunID, "dry_run", dryRun, "lookback", lookback.String())

	// Collecting.
	p.setStage(StageCollecting)
	cutoff := report.StartedAt.Add(-lookback)
	papers := p.collect(ctx, cutoff, &report)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	// Deduplicating. A failed existence check fails closed: nothing is
	// classified new, so the later stages run over an empty batch and
	// the report carries the failure (R2.5).
	p.setStage(StageDeduplicating)
	split, err := p.filter.Partition(ctx, papers)
	if err != nil {
		p.log.Error("dedup check failed", "error", err)
		report.Errors = append(report.Errors, types.RunError{
			Stage:   string(StageDeduplicating),
			Kind:    types.ErrDedupCheckFailed,
			Message: err.Error(),
		})
		var authErr *library.AuthError
		if errors.As(err, &authErr) {
			return report, fmt.Errorf("aborting run: %w", err)
		}
		split = dedup.Result{}
	}
	report.Counts.NewPapers = len(split.New)
	report.Counts.DuplicatesSkipped = len(split.Duplicates)
	p.log.Info("deduplicated", "new", len(split.New), "duplicates", len(split.Duplicates))

	// Summarizing. Bypassed entirely when disabled; dry runs summarize
	// like live runs so the preview is faithful (R3.2).
	summaries := make([]*types.Summary, len(split.New))
	if p.cfg.Summary.Enabled && p.summarizer != nil && len(split.New) > 0 {
		p.setStage(StageSummarizing)
		p.summarizeAll(ctx, split.New, summaries, &report)
	}

	// Writing.
	p.setStage(StageWriting)
	if dryRun {
		p.planWrites(split.New, summaries, &report)
		return report, nil
	}
	return report, p.writeAll(ctx, split.New, summaries, &report)
}

// collect fetches every source and normalizes the survivors of the
// lookback window. Fetch failures cost only their source; malformed
// records cost only themselves (R1.3, R1.4).
func (p *Pipeline) collect(ctx context.Context, cutoff time.Time, report *types.RunReport) []types.Paper {
	var raws []types.RawCandidate
	for _, adapter := range p.adapters {
		entries, err := adapter.Fetch(ctx, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("source fetch failed", "source", adapter.Name(), "error", err)
			report.Errors = append(report.Errors, types.RunError{
				Stage:   string(StageCollecting),
				Kind:    types.ErrFetchFailed,
				Source:  adapter.Name(),
				Message: err.Error(),
			})
			continue
		}
		p.log.Debug("source fetched", "source", adapter.Name(), "entries", len(entries))
		raws = append(raws, entries...)
	}

	raws = withinWindow(raws, cutoff)
	report.Counts.CandidatesSeen = len(raws)
	p.log.Info("collected", "candidates", len(raws))

	papers := make([]types.Paper, 0, len(raws))
	for _, raw := range raws {
		paper, err := normalize.Normalize(raw)
		if err != nil {
			p.log.Warn("malformed record skipped", "source", rawSource(raw), "id", raw.SourceID, "error", err)
			report.Errors = append(report.Errors, types.RunError{
				Stage:   string(StageCollecting),
				Kind:    types.ErrMalformedRecord,
				Key:     raw.SourceID,
				Source:  rawSource(raw),
				Message: err.Error(),
			})
			continue
		}
		papers = append(papers, paper)
	}
	return papers
}

// withinWindow keeps candidates published on or after cutoff. Zero
// publication times pass; the normalizer decides whether the record is
// usable without one.
func withinWindow(raws []types.RawCandidate, cutoff time.Time) []types.RawCandidate {
	kept := make([]types.RawCandidate, 0, len(raws))
	for _, raw := range raws {
		if raw.PublishedAt.IsZero() || !raw.PublishedAt.Before(cutoff) {
			kept = append(kept, raw)
		}
	}
	return kept
}

func rawSource(raw types.RawCandidate) string {
	if raw.Source == types.SourceRSS && raw.FeedName != "" {
		return "rss:" + raw.FeedName
	}
	return string(raw.Source)
}

// summarizeAll fills summaries[i] for each paper that summarized cleanly.
// Failed papers stay nil and still get written; the failure is counted
// and recorded (R3.3).
func (p *Pipeline) summarizeAll(ctx context.Context, papers []types.Paper, summaries []*types.Summary, report *types.RunReport) {
	outcomes := p.summarizer.SummarizeAll(ctx, papers)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			p.log.Warn("summarization failed", "key", papers[i].DedupKey, "error", outcome.Err)
			report.Counts.SummarizationFailed++
			report.Errors = append(report.Errors, types.RunError{
				Stage:   string(StageSummarizing),
				Kind:    types.ErrSummarizationFailed,
				Key:     papers[i].DedupKey,
				Source:  papers[i].SourceName,
				Message: outcome.Err.Error(),
			})
			continue
		}
		report.Counts.Summarized++
		summary := outcome.Summary
		summaries[i] = &summary
	}
}

// planWrites records what a live run would commit (R1.5).
func (p *Pipeline) planWrites(papers []types.Paper, summaries []*types.Summary, report *types.RunReport) {
	for i, paper := range papers {
		report.Planned = append(report.Planned, types.PlannedWrite{
			DedupKey:   paper.DedupKey,
			Title:      paper.Title,
			HasSummary: summaries[i] != nil,
		})
	}
	p.log.Info("dry run: writes planned", "planned", len(report.Planned))
}

// writeAll commits the new papers one by one. A write failure costs only
// its paper. A partial write (item created, note lost) is counted and
// reported distinctly and must never lead to a second create for that
// paper (R4.1, R4.2). Rejected credentials abort the remaining run.
func (p *Pipeline) writeAll(ctx context.Context, papers []types.Paper, summaries []*types.Summary, report *types.RunReport) error {
	for i, paper := range papers {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := p.writer.Commit(ctx, paper, summaries[i])
		if err != nil {
			p.log.Warn("write failed", "key", paper.DedupKey, "error", err)
			report.Counts.WriteFailed++
			report.Errors = append(report.Errors, types.RunError{
				Stage:   string(StageWriting),
				Kind:    types.ErrWriteFailed,
				Key:     paper.DedupKey,
				Source:  paper.SourceName,
				Message: err.Error(),
			})
			var authErr *library.AuthError
			if errors.As(err, &authErr) {
				return fmt.Errorf("aborting run: %w", err)
			}
			continue
		}

		if result.Partial() {
			p.log.Warn("item created, note attach failed", "key", paper.DedupKey, "item", result.ItemKey, "error", result.NoteErr)
			report.Counts.PartialWrites++
			report.Errors = append(report.Errors, types.RunError{
				Stage:   string(StageWriting),
				Kind:    types.ErrPartialWrite,
				Key:     paper.DedupKey,
				Source:  paper.SourceName,
				Message: result.NoteErr.Error(),
			})
			var authErr *library.AuthError
			if errors.As(result.NoteErr, &authErr) {
				return fmt.Errorf("aborting run: %w", result.NoteErr)
			}
			continue
		}

		p.log.Info("paper written", "key", paper.DedupKey, "item", result.ItemKey)
		report.Counts.Written++
	}
	return nil
}
