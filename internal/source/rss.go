// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// FeedAdapter polls one RSS/Atom feed (R2.5). Each configured feed gets
// its own adapter so one broken feed never hides the others' results.
type FeedAdapter struct {
	client *http.Client
	http   types.HTTPConfig
	feed   types.Feed
	parser *gofeed.Parser
}

// NewFeedAdapter builds an adapter for a single feed.
func NewFeedAdapter(client *http.Client, httpCfg types.HTTPConfig, feed types.Feed) *FeedAdapter {
	return &FeedAdapter{
		client: client,
		http:   httpCfg,
		feed:   feed,
		parser: gofeed.NewParser(),
	}
}

// Name returns the adapter identifier, e.g. "rss:BAIR Blog".
func (a *FeedAdapter) Name() string { return "rss:" + a.feed.Name }

// Fetch downloads and parses the feed. All items are returned; the
// lookback window is applied by the pipeline before normalization,
// since most feeds cannot filter server-side (R2.6).
func (a *FeedAdapter) Fetch(ctx context.Context, since time.Time) ([]types.RawCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.http.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", a.feed.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned HTTP %d", a.feed.URL, resp.StatusCode)
	}

	parsed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", a.feed.URL, err)
	}

	var candidates []types.RawCandidate
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		raw, _ := json.Marshal(item)
		c := types.RawCandidate{
			Source:     types.SourceRSS,
			SourceID:   item.GUID,
			FeedURL:    a.feed.URL,
			FeedName:   a.feed.Name,
			Title:      strings.TrimSpace(item.Title),
			Abstract:   itemAbstract(item),
			URL:        strings.TrimSpace(item.Link),
			Categories: item.Categories,
			Raw:        raw,
		}
		for _, p := range item.Authors {
			if p != nil && p.Name != "" {
				c.Authors = append(c.Authors, p.Name)
			}
		}
		if item.PublishedParsed != nil {
			c.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			c.PublishedAt = *item.UpdatedParsed
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// itemAbstract picks the best available description text: the summary
// field when present, otherwise the full content. Markup is left in
// place; normalization strips it.
func itemAbstract(item *gofeed.Item) string {
	if s := strings.TrimSpace(item.Description); s != "" {
		return s
	}
	return strings.TrimSpace(item.Content)
}
