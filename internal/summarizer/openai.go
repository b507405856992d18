package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	openAIModel                = openai.ChatModelGPT4o
	openAITemperature          = 0.3
	baseMaxOutputTokens  int64 = 2000
	limitMaxOutputTokens int64 = 8000
)

// OpenAIBackend calls OpenAI's Responses API.
type OpenAIBackend struct {
	client openai.Client
}

func NewOpenAIBackend(apiKey string, opts ...option.RequestOption) *OpenAIBackend {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &OpenAIBackend{
		client: openai.NewClient(opts...),
	}
}

func (b *OpenAIBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := b.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openAIModel,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Temperature:     openai.Float(openAITemperature),
			Instructions:    openai.String(prompt.System),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt.User),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		summary := strings.TrimSpace(resp.OutputText())
		if summary == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return summary, nil
	}
}
