package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	anthropicModel             = anthropic.Model("claude-sonnet-4-20250514")
	anthropicMaxTokens   int64 = 2000
	anthropicTemperature       = 0.3
)

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	client anthropic.Client
}

func NewAnthropicBackend(apiKey string, opts ...option.RequestOption) *AnthropicBackend {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &AnthropicBackend{
		client: anthropic.NewClient(opts...),
	}
}

func (b *AnthropicBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropicModel,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(anthropicTemperature),
		System: []anthropic.TextBlockParam{
			{Text: prompt.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return "", fmt.Errorf("output text is missing (stopReason = %s)", msg.StopReason)
	}

	return summary, nil
}
