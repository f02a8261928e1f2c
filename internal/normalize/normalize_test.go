package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paperwatch/pkg/types"
)

func TestCanonicalArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2301.07041", "2301.07041"},
		{"2301.07041v1", "2301.07041"},
		{"2301.07041v12", "2301.07041"},
		{"arXiv:2301.07041v2", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v3", "2301.07041"},
		{"  2301.07041 ", "2301.07041"},
		{"2301.7041", "2301.7041"},
		{"not-an-id", ""},
		{"10.1145/3292500", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalArxivID(tt.in); got != tt.want {
			t.Errorf("CanonicalArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeArxivVersionsShareKey(t *testing.T) {
	v1 := types.RawCandidate{Source: types.SourceArxiv, SourceID: "2301.00001v1", Title: "A Paper"}
	v2 := types.RawCandidate{Source: types.SourceArxiv, SourceID: "2301.00001v2", Title: "A Paper (revised)"}

	p1, err := Normalize(v1)
	if err != nil {
		t.Fatalf("Normalize(v1) error: %v", err)
	}
	p2, err := Normalize(v2)
	if err != nil {
		t.Fatalf("Normalize(v2) error: %v", err)
	}

	if p1.DedupKey != "arxiv:2301.00001" {
		t.Errorf("DedupKey = %q", p1.DedupKey)
	}
	if p1.DedupKey != p2.DedupKey {
		t.Errorf("versions got different keys: %q vs %q", p1.DedupKey, p2.DedupKey)
	}
}

func TestNormalizeArxiv(t *testing.T) {
	published := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	raw := types.RawCandidate{
		Source:      types.SourceArxiv,
		SourceID:    "2508.12345v1",
		Title:       "  Spaced   Title\n Lines ",
		Authors:     []string{"Ada Lovelace"},
		Abstract:    "Line one\n  line two.",
		URL:         "http://arxiv.org/abs/2508.12345v1",
		PublishedAt: published,
		Categories:  []string{"cs.LG"},
	}

	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if p.Title != "Spaced Title Lines" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Abstract != "Line one line two." {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	if p.Source != types.SourceArxiv || p.SourceName != "arxiv" {
		t.Errorf("source = %q / %q", p.Source, p.SourceName)
	}
	if !p.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt = %v", p.PublishedAt)
	}
}

func TestNormalizeArxivDefaultURL(t *testing.T) {
	raw := types.RawCandidate{Source: types.SourceArxiv, SourceID: "2508.12345", Title: "T"}
	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if p.URL != "https://arxiv.org/abs/2508.12345" {
		t.Errorf("URL = %q", p.URL)
	}
}

func TestNormalizeRSS(t *testing.T) {
	raw := types.RawCandidate{
		Source:   types.SourceRSS,
		SourceID: "g1",
		FeedURL:  "https://x.example/feed.xml",
		FeedName: "X Lab",
		Title:    "A Post",
		Abstract: "<p>Some &amp; <b>bold</b> text.</p>",
		URL:      "https://x.example/posts/1",
	}

	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if !strings.HasPrefix(p.DedupKey, "rss:") || len(p.DedupKey) != len("rss:")+16 {
		t.Errorf("DedupKey = %q, want rss: + 16 hex chars", p.DedupKey)
	}
	if p.Abstract != "Some & bold text." {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	if p.SourceName != "rss:X Lab" {
		t.Errorf("SourceName = %q", p.SourceName)
	}
}

func TestNormalizeRSSKeyStability(t *testing.T) {
	mk := func(feedURL, guid, link string) string {
		t.Helper()
		p, err := Normalize(types.RawCandidate{
			Source: types.SourceRSS, SourceID: guid, FeedURL: feedURL,
			Title: "T", URL: link,
		})
		if err != nil {
			t.Fatalf("Normalize() error: %v", err)
		}
		return p.DedupKey
	}

	a := mk("https://x.example/feed.xml", "g1", "https://x.example/1")
	b := mk("https://x.example/feed.xml", "g1", "https://x.example/other-link")
	if a != b {
		t.Errorf("same feed+guid must share a key: %q vs %q", a, b)
	}

	c := mk("https://y.example/feed.xml", "g1", "https://x.example/1")
	if a == c {
		t.Error("different feeds must not share a key for the same guid")
	}

	// Without a GUID the link is the identity.
	d := mk("https://x.example/feed.xml", "", "https://x.example/1")
	e := mk("https://x.example/feed.xml", "", "https://x.example/1")
	if d != e {
		t.Errorf("link fallback not stable: %q vs %q", d, e)
	}
	if d == a {
		t.Error("guid and link identities should differ for different values")
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    types.RawCandidate
		reason string
	}{
		{
			"arxiv bad id",
			types.RawCandidate{Source: types.SourceArxiv, SourceID: "junk", Title: "T"},
			"unusable arXiv identifier",
		},
		{
			"arxiv missing title",
			types.RawCandidate{Source: types.SourceArxiv, SourceID: "2301.00001"},
			"missing title",
		},
		{
			"rss missing title",
			types.RawCandidate{Source: types.SourceRSS, SourceID: "g1", FeedURL: "https://x.example/f", URL: "https://x.example/1"},
			"missing title",
		},
		{
			"rss no link or guid",
			types.RawCandidate{Source: types.SourceRSS, FeedURL: "https://x.example/f", Title: "T"},
			"missing item link and guid",
		},
		{
			"rss missing feed url",
			types.RawCandidate{Source: types.SourceRSS, SourceID: "g1", Title: "T", URL: "https://x.example/1"},
			"missing feed URL",
		},
		{
			"unknown source",
			types.RawCandidate{Source: "gopher", SourceID: "x", Title: "T"},
			"unknown source",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			var merr *MalformedRecordError
			if !errors.As(err, &merr) {
				t.Fatalf("Normalize() error = %v, want MalformedRecordError", err)
			}
			if !strings.Contains(merr.Reason, tt.reason) {
				t.Errorf("Reason = %q, want %q", merr.Reason, tt.reason)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<p>para</p>", "para"},
		{"a &amp; b", "a & b"},
		{"too   many\n\nspaces", "too many spaces"},
		{"<div class='x'>nested <b>tags</b></div>", "nested tags"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
