// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize generates short prose summaries and key ideas for
// newly discovered papers through a Generative AI API.
// Implements: prd004-summarization (R1, R2, R3);
//
//	docs/ARCHITECTURE § Summarization.
package summarize

import (
	"context"
	"fmt"
	"math"
	"sync"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperwatch/pkg/types"
)

const (
	defaultMaxRetries        = 3
	defaultMaxConcurrent     = 4
	defaultRequestsPerSecond = 2.0
)

// backoffBase controls the base duration for exponential backoff between
// transient failures. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Summarizer runs the summary prompt against a Backend with client-side
// rate limiting and bounded retries.
type Summarizer struct {
	backend Backend
	cfg     types.SummaryConfig
	limiter *rate.Limiter
	tmpl    *template.Template
}

// New builds a Summarizer around an existing backend. The prompt template
// defaults to the built-in one unless cfg.PromptTemplate overrides it (R2.3).
func New(backend Backend, cfg types.SummaryConfig) (*Summarizer, error) {
	tmpl := defaultPromptTmpl
	if cfg.PromptTemplate != "" {
		parsed, err := template.New("summary").Parse(cfg.PromptTemplate)
		if err != nil {
			return nil, fmt.Errorf("parsing prompt template: %w", err)
		}
		tmpl = parsed
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return &Summarizer{
		backend: backend,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		tmpl:    tmpl,
	}, nil
}

// NewFromConfig picks the backend from the configured model name and
// builds a Summarizer around it.
func NewFromConfig(cfg types.SummaryConfig) (*Summarizer, error) {
	backend, err := NewBackend(cfg.AIConfig)
	if err != nil {
		return nil, err
	}
	return New(backend, cfg)
}

// Outcome is the result of summarizing one paper. Err is nil on success.
type Outcome struct {
	Summary types.Summary
	Err     error
}

// Summarize generates a summary for one paper. Transient backend errors are
// retried with exponential backoff up to cfg.MaxRetries times (R3.1).
// Permanent errors fail immediately; systemic errors come back wrapped in
// a SystemicError so the caller can stop the batch.
func (s *Summarizer) Summarize(ctx context.Context, paper types.Paper) (types.Summary, error) {
	prompt, err := renderPrompt(s.tmpl, paper)
	if err != nil {
		return types.Summary{}, fmt.Errorf("rendering prompt: %w", err)
	}

	maxRetries := s.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.Summary{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return types.Summary{}, err
		}

		raw, err := s.backend.Generate(ctx, prompt)
		if err != nil {
			switch classify(err) {
			case errSystemic:
				return types.Summary{}, &SystemicError{Err: err}
			case errTransient:
				lastErr = err
				continue
			}
			return types.Summary{}, err
		}

		resp, err := parseSummary(raw)
		if err != nil {
			// Malformed output counts as a summarization failure,
			// not a transient error (R3.2).
			return types.Summary{}, err
		}

		return types.Summary{
			Text:        resp.Summary,
			KeyIdeas:    resp.KeyIdeas,
			Model:       s.cfg.Model,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}
	return types.Summary{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// SummarizeAll summarizes papers with at most cfg.MaxConcurrent backend
// calls in flight and preserves input order in the returned slice. After
// a systemic failure no further backend calls are issued; the remaining
// papers carry that same error (R3.3).
func (s *Summarizer) SummarizeAll(ctx context.Context, papers []types.Paper) []Outcome {
	outcomes := make([]Outcome, len(papers))
	if len(papers) == 0 {
		return outcomes
	}

	workers := s.cfg.MaxConcurrent
	if workers <= 0 {
		workers = defaultMaxConcurrent
	}
	if workers > len(papers) {
		workers = len(papers)
	}

	var (
		mu       sync.Mutex
		systemic error
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				mu.Lock()
				stop := systemic
				mu.Unlock()
				if stop != nil {
					outcomes[i] = Outcome{Err: stop}
					continue
				}

				sum, err := s.Summarize(ctx, papers[i])
				if err != nil && IsSystemic(err) {
					mu.Lock()
					if systemic == nil {
						systemic = err
					}
					mu.Unlock()
				}
				outcomes[i] = Outcome{Summary: sum, Err: err}
			}
		}()
	}

	for i := range papers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}
