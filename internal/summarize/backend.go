// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paperwatch/pkg/types"
)

// Backend abstracts one Generative AI API so tests can supply a mock.
// Generate sends a single prompt and returns the raw text response.
// Per Strategy pattern (prd004-summarization R1.2).
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewBackend picks the provider from the model name: names containing
// "claude" use the Anthropic API, names containing "gpt" use OpenAI
// (R1.3). The caller supplies the matching API key in cfg.APIKey.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	model := strings.ToLower(cfg.Model)
	switch {
	case strings.Contains(model, "claude"):
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured")
		}
		return NewAnthropicBackend(cfg.APIKey, cfg.Model), nil
	case strings.Contains(model, "gpt"):
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIBackend(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("cannot infer provider from model %q: expected a claude or gpt model", cfg.Model)
	}
}
