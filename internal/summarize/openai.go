// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openaiBaseURL overrides the OpenAI endpoint for tests. Empty uses the
// SDK default.
var openaiBaseURL = ""

// OpenAIBackend generates summaries through the OpenAI chat completion API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if openaiBaseURL != "" {
		config.BaseURL = openaiBaseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: maxResponseTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling openai API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
