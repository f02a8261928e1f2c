// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw source records into canonical papers
// with stable dedup keys.
// Implements: prd002-normalization (R1-R3);
//
//	docs/ARCHITECTURE § Normalization.
package normalize

import (
	"crypto/sha256"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// MalformedRecordError reports a raw candidate missing a required
// field. Callers skip the record and note it in the run report; a
// malformed record is never fatal to the run.
type MalformedRecordError struct {
	Source types.Source
	ID     string // best available identifier, for report lines
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record %q: %s", e.Source, e.ID, e.Reason)
}

// Normalize converts one RawCandidate into a canonical Paper. It is
// pure: same input, same output, no I/O. Records missing required
// fields return *MalformedRecordError (R1.3).
func Normalize(raw types.RawCandidate) (types.Paper, error) {
	switch raw.Source {
	case types.SourceArxiv:
		return normalizeArxiv(raw)
	case types.SourceRSS:
		return normalizeRSS(raw)
	default:
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: raw.SourceID, Reason: "unknown source"}
	}
}

func normalizeArxiv(raw types.RawCandidate) (types.Paper, error) {
	id := CanonicalArxivID(raw.SourceID)
	if id == "" {
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: raw.SourceID, Reason: "unusable arXiv identifier"}
	}
	if strings.TrimSpace(raw.Title) == "" {
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: id, Reason: "missing title"}
	}

	url := strings.TrimSpace(raw.URL)
	if url == "" {
		url = "https://arxiv.org/abs/" + id
	}

	return types.Paper{
		DedupKey:    ArxivKey(id),
		Title:       cleanText(raw.Title),
		Authors:     raw.Authors,
		Abstract:    cleanText(raw.Abstract),
		URL:         url,
		PublishedAt: raw.PublishedAt,
		Source:      types.SourceArxiv,
		SourceName:  "arxiv",
		Categories:  raw.Categories,
	}, nil
}

func normalizeRSS(raw types.RawCandidate) (types.Paper, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: bestRSSID(raw), Reason: "missing title"}
	}
	if strings.TrimSpace(raw.URL) == "" && strings.TrimSpace(raw.SourceID) == "" {
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: raw.Title, Reason: "missing item link and guid"}
	}
	if strings.TrimSpace(raw.FeedURL) == "" {
		return types.Paper{}, &MalformedRecordError{Source: raw.Source, ID: bestRSSID(raw), Reason: "missing feed URL"}
	}

	// GUID is the preferred identity; the item link stands in when the
	// feed omits one (R2.2).
	guid := strings.TrimSpace(raw.SourceID)
	if guid == "" {
		guid = strings.TrimSpace(raw.URL)
	}

	sourceName := "rss"
	if raw.FeedName != "" {
		sourceName = "rss:" + raw.FeedName
	}

	return types.Paper{
		DedupKey:    RSSKey(raw.FeedURL, guid),
		Title:       cleanText(raw.Title),
		Authors:     raw.Authors,
		Abstract:    cleanText(raw.Abstract),
		URL:         strings.TrimSpace(raw.URL),
		PublishedAt: raw.PublishedAt,
		Source:      types.SourceRSS,
		SourceName:  sourceName,
		Categories:  raw.Categories,
	}, nil
}

func bestRSSID(raw types.RawCandidate) string {
	if raw.SourceID != "" {
		return raw.SourceID
	}
	return raw.URL
}

// arxivIDPattern matches modern arXiv IDs with an optional version:
// "2301.07041", "2301.07041v2", optionally prefixed "arXiv:".
var arxivIDPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5})(v\d+)?$`)

// CanonicalArxivID validates an arXiv identifier and strips the
// optional "arXiv:" prefix, any abs-URL wrapping, and the version
// suffix. Different versions of one paper share a canonical ID (R2.1).
// Returns "" for anything unrecognizable.
func CanonicalArxivID(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.Index(id, "/abs/"); idx >= 0 {
		id = id[idx+len("/abs/"):]
	}
	if m := arxivIDPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return ""
}

// ArxivKey builds the dedup key for a canonical arXiv ID.
func ArxivKey(canonicalID string) string {
	return "arxiv:" + canonicalID
}

// RSSKey builds the dedup key for a feed item: the first 16 hex chars
// of SHA-256 over the feed URL and the item GUID, newline-separated.
// The feed URL is part of the hash so two feeds republishing the same
// GUID stay distinct (R2.3).
func RSSKey(feedURL, guid string) string {
	h := sha256.New()
	h.Write([]byte(feedURL))
	h.Write([]byte("\n"))
	h.Write([]byte(guid))
	return "rss:" + fmt.Sprintf("%x", h.Sum(nil))[:16]
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// cleanText strips HTML tags, decodes entities, and collapses all
// whitespace runs to single spaces. arXiv abstracts arrive with hard
// line wraps and feed descriptions with markup; papers carry neither.
func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
