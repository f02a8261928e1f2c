// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// anthropicBaseURL overrides the Anthropic endpoint. Package-level var
// so tests can substitute an httptest server. Empty uses the SDK default.
var anthropicBaseURL = ""

const maxResponseTokens = 1024

// AnthropicBackend generates summaries through the Anthropic Messages API.
type AnthropicBackend struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicBackend(apiKey, model string) *AnthropicBackend {
	var opts []anthropic.ClientOption
	if anthropicBaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(anthropicBaseURL))
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(b.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: maxResponseTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return "", fmt.Errorf("anthropic API returned no text content")
	}
	return *resp.Content[0].Text, nil
}
