// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches raw paper candidates from external feeds.
// Implements: prd001-collection (R1-R5);
//
//	docs/ARCHITECTURE § Collection.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// Adapter fetches candidates from one concrete source. Each adapter
// (the arXiv API, one RSS feed) implements this interface per the
// Strategy pattern (R1.1). Fetch re-queries the source on every call
// and returns a finite batch; nothing is cached between runs. A failed
// Fetch must not abort the run: the pipeline records the failure and
// continues with the other sources.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) ([]types.RawCandidate, error)
}

// BuildAdapters constructs the run's adapters from configuration: one
// arXiv adapter when categories or keywords are set, plus one adapter
// per configured feed. Per-feed adapters keep feed failures isolated
// from each other (R2.7).
func BuildAdapters(client *http.Client, cfg types.PipelineConfig) []Adapter {
	var adapters []Adapter
	if len(cfg.Arxiv.Categories) > 0 || len(cfg.Arxiv.Keywords) > 0 {
		adapters = append(adapters, NewArxivAdapter(client, cfg.Arxiv))
	}
	for _, f := range cfg.Feeds.Feeds {
		adapters = append(adapters, NewFeedAdapter(client, cfg.Feeds.HTTPConfig, f))
	}
	return adapters
}

// File is the on-disk sources list: the arXiv watch terms and the RSS
// feeds to poll. The researcher edits this file by hand; the pipeline
// reads it on every run so edits take effect without a restart.
// Per prd001-collection R4.1.
type File struct {
	Arxiv ArxivSources `yaml:"arxiv"`
	Feeds []types.Feed `yaml:"feeds"`
}

// ArxivSources stores the arXiv portion of the sources file.
type ArxivSources struct {
	Categories []string `yaml:"categories,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty"`
	MaxResults int      `yaml:"max_results,omitempty"`
}

// LoadFile reads and validates a sources file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("sources file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks that the file names at least one source and that
// every feed has a usable URL.
func (f *File) Validate() error {
	if len(f.Arxiv.Categories) == 0 && len(f.Arxiv.Keywords) == 0 && len(f.Feeds) == 0 {
		return fmt.Errorf("no sources configured: set arxiv categories/keywords or feeds")
	}
	for i, feed := range f.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feed %d (%q): missing url", i, feed.Name)
		}
		u, err := url.Parse(feed.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("feed %d (%q): invalid url %q", i, feed.Name, feed.URL)
		}
	}
	return nil
}

// Apply copies the file's watch terms into the pipeline configuration.
// Feeds without a name are labeled by their host.
func (f *File) Apply(cfg *types.PipelineConfig) {
	cfg.Arxiv.Categories = f.Arxiv.Categories
	cfg.Arxiv.Keywords = f.Arxiv.Keywords
	if f.Arxiv.MaxResults > 0 {
		cfg.Arxiv.MaxResults = f.Arxiv.MaxResults
	}

	feeds := make([]types.Feed, 0, len(f.Feeds))
	for _, feed := range f.Feeds {
		if feed.Name == "" {
			if u, err := url.Parse(feed.URL); err == nil {
				feed.Name = u.Host
			}
		}
		feeds = append(feeds, feed)
	}
	cfg.Feeds.Feeds = feeds
}
