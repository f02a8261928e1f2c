// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperwatch/internal/httputil"
	"github.com/pdiddy/paperwatch/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	defaultArxivMaxResults = 50
	defaultArxivInterval   = 3 * time.Second
)

// ArxivAdapter queries the arXiv API for recent papers matching the
// configured categories and keywords (R2.1).
type ArxivAdapter struct {
	client  *http.Client
	cfg     types.ArxivConfig
	limiter *rate.Limiter
}

// NewArxivAdapter builds an adapter that paces its requests at the
// configured interval (default 3s, the arXiv courtesy limit).
func NewArxivAdapter(client *http.Client, cfg types.ArxivConfig) *ArxivAdapter {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = defaultArxivInterval
	}
	return &ArxivAdapter{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Name returns the adapter identifier.
func (a *ArxivAdapter) Name() string { return "arxiv" }

// Fetch queries arXiv sorted by submission date, newest first, and
// stops reading entries once they fall behind since (R2.2, R2.3).
// Entries flow through as RawCandidates; field validation happens in
// normalization.
func (a *ArxivAdapter) Fetch(ctx context.Context, since time.Time) ([]types.RawCandidate, error) {
	q := buildArxivQuery(a.cfg.Categories, a.cfg.Keywords)
	if q == "" {
		return nil, fmt.Errorf("no arXiv categories or keywords configured")
	}

	maxResults := a.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultArxivMaxResults
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, q, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var candidates []types.RawCandidate
	for _, entry := range feed.Entries {
		raw, _ := json.Marshal(entry)
		c := types.RawCandidate{
			Source:   types.SourceArxiv,
			SourceID: listedArxivID(entry.ID),
			Title:    strings.TrimSpace(entry.Title),
			Abstract: strings.TrimSpace(entry.Summary),
			URL:      strings.TrimSpace(entry.ID),
			Raw:      raw,
		}
		for _, au := range entry.Authors {
			c.Authors = append(c.Authors, strings.TrimSpace(au.Name))
		}
		for _, cat := range entry.Categories {
			if cat.Term != "" {
				c.Categories = append(c.Categories, cat.Term)
			}
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			c.PublishedAt = t
			// Entries are sorted newest first; once one falls behind
			// the cutoff every later entry does too.
			if !since.IsZero() && t.Before(since) {
				break
			}
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// buildArxivQuery constructs the search_query parameter. Categories are
// OR'd together, keywords are OR'd together (each matched in title or
// abstract), and the two groups are AND'ed when both are present:
//
//	(cat:cs.LG+OR+cat:cs.RO)+AND+(ti:%22robot+learning%22+OR+abs:%22robot+learning%22)
//
// A lone group stands by itself. Per prd001-collection R2.2.
func buildArxivQuery(categories, keywords []string) string {
	var groups []string

	var catTerms []string
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		catTerms = append(catTerms, "cat:"+c)
	}
	if len(catTerms) > 0 {
		groups = append(groups, orGroup(catTerms))
	}

	var kwTerms []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		phrase := "%22" + strings.Join(strings.Fields(kw), "+") + "%22"
		kwTerms = append(kwTerms, "ti:"+phrase, "abs:"+phrase)
	}
	if len(kwTerms) > 0 {
		groups = append(groups, orGroup(kwTerms))
	}

	return strings.Join(groups, "+AND+")
}

func orGroup(terms []string) string {
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, "+OR+") + ")"
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// listedArxivID pulls the arXiv ID from the entry's <id> URL, keeping
// any version suffix (e.g. "http://arxiv.org/abs/2301.07041v2" →
// "2301.07041v2"). Version stripping happens in normalization, where
// identity is decided.
func listedArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
