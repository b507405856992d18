package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// KnownProviders lists providers in preference order.
var KnownProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// ParseProvider maps user input to a known provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownProviders {
		if p == known {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

// Prompt is a fully rendered request for a remote model.
type Prompt struct {
	System string
	User   string
}

// Backend sends a prompt to one remote model.
type Backend interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

var (
	ErrEmptyText           = errors.New("no text provided for summarization")
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
)

// ProviderUnavailableError reports a provider that has no usable client.
type ProviderUnavailableError struct {
	Provider Provider
	Reason   string
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s is unavailable: %s", e.Provider, e.Reason)
}

// ProviderRequestError wraps a transport or model failure.
type ProviderRequestError struct {
	Provider Provider
	Err      error
}

func (e *ProviderRequestError) Error() string {
	return fmt.Sprintf("provider %s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderRequestError) Unwrap() error {
	return e.Err
}

// Availability is either an available backend or the reason it is missing.
type Availability struct {
	provider Provider
	backend  Backend
	reason   string
}

func Available(p Provider, b Backend) Availability {
	if b == nil {
		return Unavailable(p, "client is not initialized")
	}

	return Availability{provider: p, backend: b}
}

func Unavailable(p Provider, reason string) Availability {
	return Availability{provider: p, reason: reason}
}

func (a Availability) Provider() Provider {
	return a.provider
}

func (a Availability) IsAvailable() bool {
	return a.backend != nil
}

// Reason is empty for available providers.
func (a Availability) Reason() string {
	if a.IsAvailable() {
		return ""
	}
	if a.reason == "" {
		return "not configured"
	}

	return a.reason
}
