// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup partitions candidate papers into new and already-known
// against the reference library.
// Implements: prd003-dedup (R1-R4);
//
//	docs/ARCHITECTURE § Deduplication.
package dedup

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// KeyChecker answers which dedup keys already exist in the reference
// library. Implementations are expected to batch their lookups to
// respect the library API's rate and size limits; the library client
// is the production implementation.
type KeyChecker interface {
	ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

// CheckFailedError wraps an existence-check failure. The filter fails
// closed: when the library cannot be consulted, nothing is classified
// new and the caller must skip writing for the whole batch rather than
// risk duplicates (R3.1).
type CheckFailedError struct {
	Err error
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("dedup check failed: %v", e.Err)
}

func (e *CheckFailedError) Unwrap() error { return e.Err }

// Result is an order-preserving split of the input batch. Every input
// paper lands in exactly one of the two slices, keeping its relative
// order (R2.3).
type Result struct {
	New        []types.Paper
	Duplicates []types.Paper
}

// Filter classifies papers against the library.
type Filter struct {
	Checker KeyChecker
}

// Partition queries the library for the batch's dedup keys and splits
// the batch. A key already in the library is a duplicate; a key seen
// earlier in the same batch keeps only its first occurrence as new and
// later occurrences become duplicates of the in-batch original (R2.4).
// The existence check completes fully before the result is assembled,
// so callers can rely on a stable new-set when writing begins.
func (f *Filter) Partition(ctx context.Context, papers []types.Paper) (Result, error) {
	if len(papers) == 0 {
		return Result{}, nil
	}

	known, err := f.Checker.ExistingKeys(ctx, uniqueKeys(papers))
	if err != nil {
		return Result{}, &CheckFailedError{Err: err}
	}

	var res Result
	seen := make(map[string]bool, len(papers))
	for _, p := range papers {
		if known[p.DedupKey] || seen[p.DedupKey] {
			res.Duplicates = append(res.Duplicates, p)
			continue
		}
		seen[p.DedupKey] = true
		res.New = append(res.New, p)
	}
	return res, nil
}

// uniqueKeys returns the batch's dedup keys, first-occurrence order,
// without repeats.
func uniqueKeys(papers []types.Paper) []string {
	seen := make(map[string]bool, len(papers))
	keys := make([]string, 0, len(papers))
	for _, p := range papers {
		if seen[p.DedupKey] {
			continue
		}
		seen[p.DedupKey] = true
		keys = append(keys, p.DedupKey)
	}
	return keys
}
