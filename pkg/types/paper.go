// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies which adapter produced a candidate.
// Per prd001-collection R1.2.
type Source string

const (
	SourceArxiv Source = "arxiv"
	SourceRSS   Source = "rss"
)

// RawCandidate is a paper record as received from one source, before
// normalization. The Source field tags which variant the record is;
// normalization dispatches on it rather than sniffing fields.
// RawCandidates are ephemeral and discarded once normalized.
// Per prd001-collection R3.1.
type RawCandidate struct {
	// Source tags the producing adapter: arxiv or rss.
	Source Source `json:"source" yaml:"source"`

	// SourceID is the source-native identifier: the arXiv ID as listed
	// (possibly versioned, e.g. "2301.07041v2") or the RSS item GUID.
	// Empty when the source provided none.
	SourceID string `json:"source_id" yaml:"source_id"`

	// FeedURL is the URL of the feed that produced the item (rss only).
	FeedURL string `json:"feed_url,omitempty" yaml:"feed_url,omitempty"`

	// FeedName is the configured human label of the feed (rss only).
	FeedName string `json:"feed_name,omitempty" yaml:"feed_name,omitempty"`

	// Title is the candidate title as received.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the abstract or item description, possibly still
	// carrying source markup.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the candidate's landing page.
	URL string `json:"url" yaml:"url"`

	// PublishedAt is the publication timestamp reported by the source.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// Categories lists source-side subject labels (arXiv categories,
	// feed item categories).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Raw is the source record as parsed, kept opaque for debugging.
	// Never serialized and never consulted by normalization.
	Raw []byte `json:"-" yaml:"-"`
}

// Paper is the canonical representation used by every stage after
// normalization. Papers are immutable once created; the only later
// addition is a Summary attached by the summarization stage.
// Per prd002-normalization R1.1.
type Paper struct {
	// DedupKey is the stable identity used for duplicate detection:
	// "arxiv:<id>" with the version suffix stripped, or
	// "rss:<hash>" derived from the feed URL and item GUID.
	DedupKey string `json:"dedup_key" yaml:"dedup_key"`

	// Title is the cleaned paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the cleaned abstract (markup stripped).
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the paper landing page.
	URL string `json:"url" yaml:"url"`

	// PublishedAt is the publication timestamp.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// Source identifies the producing adapter.
	Source Source `json:"source" yaml:"source"`

	// SourceName is a human label for the concrete source
	// (e.g. "arxiv" or the feed name). Used for report lines and
	// library tags, never for identity.
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`

	// Categories lists subject labels used for filtering and library
	// tags. Categories never participate in identity.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Summary is an LLM-generated summary attached to exactly one paper.
// Per prd004-summarization R2.1.
type Summary struct {
	// Text is the short prose summary (2-3 sentences).
	Text string `json:"text" yaml:"text"`

	// KeyIdeas lists the paper's main ideas in model order.
	KeyIdeas []string `json:"key_ideas" yaml:"key_ideas"`

	// Model is the identifier of the model that produced the summary.
	Model string `json:"model" yaml:"model"`

	// GeneratedAt is when the summary was produced.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
