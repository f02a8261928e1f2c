// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// Result is the outcome of committing one paper.
type Result struct {
	// ItemKey is the Zotero key of the created item.
	ItemKey string

	// NoteErr is set when the item was created but the note attach
	// failed. The item exists in the library, so the paper must not be
	// re-created on a later run.
	NoteErr error
}

// Partial reports whether the commit created the item but lost the note.
func (r Result) Partial() bool {
	return r.ItemKey != "" && r.NoteErr != nil
}

// Writer commits papers to the library in the two-step create-then-note
// order. Per prd005-library R3.
type Writer struct {
	client *Client
}

func NewWriter(client *Client) *Writer {
	return &Writer{client: client}
}

// Commit writes paper and, when summary is non-nil, attaches it as a
// note. A note failure after a successful create returns a Result with
// NoteErr set and a nil error: the item already exists and is findable
// by its dedup key, so re-running the create would duplicate it (R3.3).
// Only a failed create is an error.
func (w *Writer) Commit(ctx context.Context, paper types.Paper, summary *types.Summary) (Result, error) {
	key, err := w.client.CreateItem(ctx, paper)
	if err != nil {
		return Result{}, fmt.Errorf("creating library item: %w", err)
	}
	if summary == nil {
		return Result{ItemKey: key}, nil
	}
	if err := w.client.AttachNote(ctx, key, *summary); err != nil {
		return Result{ItemKey: key, NoteErr: err}, nil
	}
	return Result{ItemKey: key}, nil
}
