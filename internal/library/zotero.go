// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library stores accepted papers in a Zotero library and answers
// dedup-key existence queries against it.
// Implements: prd005-library (R1, R2, R3);
//
//	docs/ARCHITECTURE § Library.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperwatch/internal/httputil"
	"github.com/pdiddy/paperwatch/pkg/types"
)

// zoteroAPIBase is the Zotero Web API endpoint. Package-level var for
// test substitution.
var zoteroAPIBase = "https://api.zotero.org"

const (
	apiVersion = "3"

	// defaultBatchSize is the number of dedup keys per existence query.
	defaultBatchSize = 25

	// maxQueryLimit is the Zotero API page-size ceiling. Each dedup key
	// tags at most one item, so a chunk of keys never overflows a page
	// as long as the chunk stays under this.
	maxQueryLimit = 100

	maxAPIRetries = 3
)

// AuthError marks a credential rejection by the library API. Rejected
// credentials fail every call the same way, so the run aborts on the
// first one.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("library API rejected credentials (HTTP %d)", e.StatusCode)
}

// Client talks to the Zotero Web API v3 for one user or group library.
// Items are created with the paper's dedup key as a tag, which is also
// what ExistingKeys queries, so every committed paper is discoverable by
// its key on later runs.
type Client struct {
	httpClient *http.Client
	cfg        types.LibraryConfig
}

func NewClient(httpClient *http.Client, cfg types.LibraryConfig) (*Client, error) {
	if cfg.LibraryID == "" {
		return nil, fmt.Errorf("library ID not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("library API key not configured")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, cfg: cfg}, nil
}

// libraryPrefix returns the /users/{id} or /groups/{id} path prefix.
func (c *Client) libraryPrefix() string {
	if c.cfg.LibraryType == types.LibraryGroup {
		return "/groups/" + c.cfg.LibraryID
	}
	return "/users/" + c.cfg.LibraryID
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := zoteroAPIBase + c.libraryPrefix() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("Zotero-API-Key", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	return req, nil
}

// apiError converts a non-success response into an error. 401 and 403
// map to AuthError.
func apiError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{StatusCode: resp.StatusCode}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("library API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// itemEnvelope is one element of the items endpoint's JSON array.
type itemEnvelope struct {
	Key  string   `json:"key"`
	Data itemData `json:"data"`
}

type itemData struct {
	Title string    `json:"title"`
	Tags  []itemTag `json:"tags"`
}

type itemTag struct {
	Tag string `json:"tag"`
}

// ExistingKeys reports which of the given dedup keys already tag an item
// in the library. Keys are checked in chunks of cfg.BatchSize per request
// to stay inside API limits (R2.2). Any chunk failure fails the whole
// check; the caller must not guess about the keys it did not resolve.
func (c *Client) ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(keys))

	batch := c.cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	if batch > maxQueryLimit {
		batch = maxQueryLimit
	}

	for start := 0; start < len(keys); start += batch {
		end := start + batch
		if end > len(keys) {
			end = len(keys)
		}
		if err := c.existingInChunk(ctx, keys[start:end], existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

func (c *Client) existingInChunk(ctx context.Context, keys []string, existing map[string]bool) error {
	query := url.Values{}
	// " || " is the tag query's OR operator.
	query.Set("tag", strings.Join(keys, " || "))
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(maxQueryLimit))

	req, err := c.newRequest(ctx, http.MethodGet, "/items", query, nil)
	if err != nil {
		return err
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, maxAPIRetries)
	if err != nil {
		return fmt.Errorf("querying library by tag: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var items []itemEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return fmt.Errorf("decoding library response: %w", err)
	}

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	for _, item := range items {
		for _, t := range item.Data.Tags {
			if wanted[t.Tag] {
				existing[t.Tag] = true
			}
		}
	}
	return nil
}

// createItem is the write shape for one Zotero item.
type createItem struct {
	ItemType     string    `json:"itemType"`
	Title        string    `json:"title,omitempty"`
	AbstractNote string    `json:"abstractNote,omitempty"`
	URL          string    `json:"url,omitempty"`
	Date         string    `json:"date,omitempty"`
	Extra        string    `json:"extra,omitempty"`
	Creators     []creator `json:"creators,omitempty"`
	Tags         []itemTag `json:"tags,omitempty"`
	Note         string    `json:"note,omitempty"`
	ParentItem   string    `json:"parentItem,omitempty"`
}

// creator is one author entry. Source records carry display names, not
// split names, so the whole name goes in lastName.
type creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// writeResponse is the multi-status envelope for item writes. Map keys
// are stringified positions in the submitted array.
type writeResponse struct {
	Successful map[string]struct {
		Key string `json:"key"`
	} `json:"successful"`
	Failed map[string]struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"failed"`
}

// CreateItem writes the bibliographic item for paper and returns its
// Zotero item key. The dedup key is stored as a tag so later runs find
// the paper during the existence check (R1.4).
func (c *Client) CreateItem(ctx context.Context, paper types.Paper) (string, error) {
	resp, err := c.postItems(ctx, []createItem{itemPayload(paper)})
	if err != nil {
		return "", err
	}
	key, ok := resp.Successful["0"]
	if !ok || key.Key == "" {
		if f, ok := resp.Failed["0"]; ok {
			return "", fmt.Errorf("library rejected item: %s (code %d)", f.Message, f.Code)
		}
		return "", fmt.Errorf("library response missing created item key")
	}
	return key.Key, nil
}

// AttachNote creates a child note on parentKey carrying the rendered
// summary (R3.2).
func (c *Client) AttachNote(ctx context.Context, parentKey string, summary types.Summary) error {
	resp, err := c.postItems(ctx, []createItem{{
		ItemType:   "note",
		Note:       NoteHTML(summary),
		ParentItem: parentKey,
	}})
	if err != nil {
		return err
	}
	if _, ok := resp.Successful["0"]; !ok {
		if f, ok := resp.Failed["0"]; ok {
			return fmt.Errorf("library rejected note: %s (code %d)", f.Message, f.Code)
		}
		return fmt.Errorf("library response missing created note")
	}
	return nil
}

func (c *Client) postItems(ctx context.Context, items []createItem) (writeResponse, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return writeResponse{}, fmt.Errorf("marshaling items: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/items", nil, bytes.NewReader(body))
	if err != nil {
		return writeResponse{}, err
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, maxAPIRetries)
	if err != nil {
		return writeResponse{}, fmt.Errorf("posting items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return writeResponse{}, apiError(resp)
	}

	var wr writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return writeResponse{}, fmt.Errorf("decoding write response: %w", err)
	}
	return wr, nil
}

// itemPayload maps a Paper onto the Zotero item schema. arXiv papers
// become preprint items, everything else journalArticle. Tags carry the
// source categories, a source: label, and the dedup key.
func itemPayload(paper types.Paper) createItem {
	itemType := "journalArticle"
	if paper.Source == types.SourceArxiv {
		itemType = "preprint"
	}

	item := createItem{
		ItemType:     itemType,
		Title:        paper.Title,
		AbstractNote: paper.Abstract,
		URL:          paper.URL,
	}
	if !paper.PublishedAt.IsZero() {
		item.Date = paper.PublishedAt.Format("2006-01-02")
	}
	if paper.Source == types.SourceArxiv {
		item.Extra = "arXiv: " + strings.TrimPrefix(paper.DedupKey, "arxiv:")
	}
	for _, author := range paper.Authors {
		item.Creators = append(item.Creators, creator{CreatorType: "author", LastName: author})
	}
	for _, cat := range paper.Categories {
		item.Tags = append(item.Tags, itemTag{Tag: cat})
	}
	item.Tags = append(item.Tags, itemTag{Tag: "source:" + paper.SourceName})
	item.Tags = append(item.Tags, itemTag{Tag: paper.DedupKey})
	return item
}

// NoteHTML renders a summary as the note body. Zotero notes are HTML.
func NoteHTML(summary types.Summary) string {
	var b strings.Builder
	b.WriteString("<h2>AI Summary</h2>\n")
	b.WriteString("<p>" + html.EscapeString(summary.Text) + "</p>\n")
	if len(summary.KeyIdeas) > 0 {
		b.WriteString("<h3>Key Ideas</h3>\n<ul>\n")
		for _, idea := range summary.KeyIdeas {
			b.WriteString("<li>" + html.EscapeString(idea) + "</li>\n")
		}
		b.WriteString("</ul>\n")
	}
	return b.String()
}
