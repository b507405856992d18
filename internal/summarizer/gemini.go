package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiModel                   = "gemini-2.5-flash"
	geminiMaxOutputTokens int32   = 2000
	geminiTemperature     float32 = 0.3
)

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

func NewGeminiBackend(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiBackend{client: client, model: geminiModel}, nil
}

func (b *GeminiBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	result, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(geminiTemperature),
		MaxOutputTokens:   geminiMaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", fmt.Errorf("output text is missing (model = %s)", b.model)
	}

	return summary, nil
}
