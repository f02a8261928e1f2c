package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 30s). Every outbound
	// call carries it; no stage may issue an unbounded request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperwatch/0.1"). Per prd001-collection R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ArxivConfig holds settings for the arXiv adapter.
// Per prd001-collection R2.1-R2.4.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline"`

	// Categories lists arXiv categories to watch (e.g. "cs.LG").
	// Categories are OR'd together in the query.
	Categories []string `json:"categories" yaml:"categories"`

	// Keywords lists title/abstract keywords. Keywords are OR'd together
	// and AND'ed with the category group when both are present.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MaxResults caps the number of entries requested per query (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestInterval is the minimum spacing between arXiv API calls
	// (default 3s, the documented arXiv courtesy limit).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`
}

// Feed identifies one RSS/Atom feed to watch.
type Feed struct {
	// Name is a human label used in reports and library tags.
	Name string `json:"name" yaml:"name"`

	// URL is the feed URL.
	URL string `json:"url" yaml:"url"`
}

// FeedsConfig holds settings for the RSS adapter.
// Per prd001-collection R2.5-R2.7.
type FeedsConfig struct {
	HTTPConfig `yaml:",inline"`

	// Feeds lists the feeds to poll each run.
	Feeds []Feed `json:"feeds" yaml:"feeds"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-3-5-haiku-latest").
	// The provider is chosen from the model name: names containing
	// "claude" use the Anthropic API, names containing "gpt" use OpenAI.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for transient API
	// failures (default 3). Permanent failures are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SummaryConfig holds settings for the summarization stage.
// Per prd004-summarization R1.1, R4.1-R4.4.
type SummaryConfig struct {
	AIConfig `yaml:",inline"`

	// Enabled turns the summarization stage on. When false the stage is
	// bypassed entirely and papers are written without notes.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxConcurrent bounds in-flight summarization calls (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// RequestsPerSecond paces calls to the AI API (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// PromptTemplate optionally overrides the built-in prompt. It is a
	// text/template body with .Title and .Abstract fields.
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
}

// LibraryType selects the Zotero library kind.
type LibraryType string

const (
	LibraryUser  LibraryType = "user"
	LibraryGroup LibraryType = "group"
)

// LibraryConfig holds settings for the reference library client.
// Per prd005-library R1.1-R1.3.
type LibraryConfig struct {
	HTTPConfig `yaml:",inline"`

	// LibraryID is the numeric Zotero library identifier.
	LibraryID string `json:"library_id" yaml:"library_id"`

	// LibraryType is "user" or "group" (default user).
	LibraryType LibraryType `json:"library_type" yaml:"library_type"`

	// APIKey is the Zotero Web API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BatchSize caps dedup keys per existence-check request (default 25).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// HistoryConfig holds settings for the local run-history archive.
type HistoryConfig struct {
	// Path is the SQLite database file (default "paperwatch.db").
	// The archive records run statistics only; paper identity is always
	// derived from the remote library.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	// Lookback is the collection window: only candidates published
	// within the last Lookback are considered (default 24h).
	Lookback time.Duration `json:"lookback" yaml:"lookback"`

	Arxiv   ArxivConfig   `json:"arxiv" yaml:"arxiv"`
	Feeds   FeedsConfig   `json:"feeds" yaml:"feeds"`
	Summary SummaryConfig `json:"summary" yaml:"summary"`
	Library LibraryConfig `json:"library" yaml:"library"`
	History HistoryConfig `json:"history" yaml:"history"`
}
