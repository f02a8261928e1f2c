package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paperwatch/internal/httputil"
	"github.com/pdiddy/paperwatch/pkg/types"
)

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryBaseDelay = time.Millisecond
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		keywords   []string
		want       string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:       "single category",
			categories: []string{"cs.LG"},
			want:       "cat:cs.LG",
		},
		{
			name:       "categories or together",
			categories: []string{"cs.LG", "cs.RO"},
			want:       "(cat:cs.LG+OR+cat:cs.RO)",
		},
		{
			name:     "keyword matches title or abstract",
			keywords: []string{"diffusion"},
			want:     "(ti:%22diffusion%22+OR+abs:%22diffusion%22)",
		},
		{
			name:     "multiword keyword quoted",
			keywords: []string{"robot learning"},
			want:     "(ti:%22robot+learning%22+OR+abs:%22robot+learning%22)",
		},
		{
			name:       "categories and keywords anded",
			categories: []string{"cs.LG", "cs.RO"},
			keywords:   []string{"manipulation"},
			want:       "(cat:cs.LG+OR+cat:cs.RO)+AND+(ti:%22manipulation%22+OR+abs:%22manipulation%22)",
		},
		{
			name:       "blank entries skipped",
			categories: []string{" ", "cs.AI"},
			keywords:   []string{""},
			want:       "cat:cs.AI",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildArxivQuery(tt.categories, tt.keywords); got != tt.want {
				t.Errorf("buildArxivQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListedArxivID(t *testing.T) {
	tests := []struct {
		idURL string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041v1"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"https://example.com/nothing", ""},
	}
	for _, tt := range tests {
		if got := listedArxivID(tt.idURL); got != tt.want {
			t.Errorf("listedArxivID(%q) = %q, want %q", tt.idURL, got, tt.want)
		}
	}
}

// arxivAtom renders a minimal Atom feed with the given entries.
func arxivAtom(entries ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">` + strings.Join(entries, "\n") + `</feed>`
}

func arxivAtomEntry(id, title, published string) string {
	return fmt.Sprintf(`<entry>
  <id>http://arxiv.org/abs/%s</id>
  <title>%s</title>
  <summary>  An abstract.
  </summary>
  <published>%s</published>
  <author><name>Ada Lovelace</name></author>
  <author><name>Alan Turing</name></author>
  <category term="cs.LG"/>
  <category term="stat.ML"/>
</entry>`, id, title, published)
}

func newArxivTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() { arxivAPIBase = old })
	return ts
}

func TestArxivFetch(t *testing.T) {
	var gotQuery, gotUA string
	ts := newArxivTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, arxivAtom(
			arxivAtomEntry("2508.11111v1", "Fresh Paper", "2026-08-24T12:00:00Z"),
			arxivAtomEntry("2508.22222v2", "Also Fresh", "2026-08-23T09:30:00Z"),
		))
	})

	adapter := NewArxivAdapter(ts.Client(), types.ArxivConfig{
		HTTPConfig:      types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "test/0.1"},
		Categories:      []string{"cs.LG"},
		MaxResults:      25,
		RequestInterval: time.Millisecond,
	})

	since := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	got, err := adapter.Fetch(context.Background(), since)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(got))
	}

	first := got[0]
	if first.Source != types.SourceArxiv {
		t.Errorf("Source = %q, want arxiv", first.Source)
	}
	if first.SourceID != "2508.11111v1" {
		t.Errorf("SourceID = %q, want listed ID with version", first.SourceID)
	}
	if first.Title != "Fresh Paper" {
		t.Errorf("Title = %q", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "cs.LG" {
		t.Errorf("Categories = %v", first.Categories)
	}
	if first.URL != "http://arxiv.org/abs/2508.11111v1" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}

	if !strings.Contains(gotQuery, "sortBy=submittedDate") {
		t.Errorf("query %q missing submittedDate sort", gotQuery)
	}
	if !strings.Contains(gotQuery, "max_results=25") {
		t.Errorf("query %q missing max_results", gotQuery)
	}
	if gotUA != "test/0.1" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestArxivFetchStopsAtCutoff(t *testing.T) {
	ts := newArxivTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, arxivAtom(
			arxivAtomEntry("2508.10000v1", "New", "2026-08-24T12:00:00Z"),
			arxivAtomEntry("2507.99999v1", "Old", "2026-07-01T12:00:00Z"),
			arxivAtomEntry("2508.10001v1", "Newer But After Old", "2026-08-24T13:00:00Z"),
		))
	})

	adapter := NewArxivAdapter(ts.Client(), types.ArxivConfig{
		Categories:      []string{"cs.LG"},
		RequestInterval: time.Millisecond,
	})

	since := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	got, err := adapter.Fetch(context.Background(), since)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	// The feed is newest-first; reading stops at the first stale entry,
	// so the out-of-order third entry is never considered.
	if len(got) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(got))
	}
	if got[0].Title != "New" {
		t.Errorf("kept %q, want the fresh entry", got[0].Title)
	}
}

func TestArxivFetchHTTPError(t *testing.T) {
	ts := newArxivTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	adapter := NewArxivAdapter(ts.Client(), types.ArxivConfig{
		Categories:      []string{"cs.LG"},
		RequestInterval: time.Millisecond,
	})

	_, err := adapter.Fetch(context.Background(), time.Time{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("Fetch() error = %v, want HTTP 500", err)
	}
}

func TestArxivFetchNoTermsConfigured(t *testing.T) {
	adapter := NewArxivAdapter(http.DefaultClient, types.ArxivConfig{RequestInterval: time.Millisecond})
	_, err := adapter.Fetch(context.Background(), time.Time{})
	if err == nil {
		t.Fatal("Fetch() with no terms should fail")
	}
}
