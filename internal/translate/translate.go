package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docbrief/internal/textutil"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://translate.googleapis.com"
	DefaultLanguage = "en"

	// MaxChunkRunes is the longest text sent in a single request.
	MaxChunkRunes = 5000

	defaultClientTimeout = 30 * time.Second
	maxResponseBytes     = 4 << 20
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyText           = errors.New("no text to translate")
)

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "ur", Name: "Urdu"},
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)

	return out
}

// LanguageName returns the display name of a supported language code.
func LanguageName(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range languages {
		if l.Code == code {
			return l.Name, true
		}
	}

	return "", false
}

type Translation struct {
	Text     string `json:"translated"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type Client struct {
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

// NewClient uses DefaultBaseURL when baseURL is empty.
func NewClient(client *http.Client, baseURL string, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Translate detects the source language and translates text into lang.
func (c *Client) Translate(ctx context.Context, text string, lang string) (Translation, error) {
	code := strings.ToLower(strings.TrimSpace(lang))
	if code == "" {
		code = DefaultLanguage
	}

	name, ok := LanguageName(code)
	if !ok {
		return Translation{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	chunks := textutil.SplitChunks(text, MaxChunkRunes)
	if len(chunks) == 0 {
		return Translation{}, ErrEmptyText
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		translated, err := c.translateChunk(ctx, chunk, code)
		if err != nil {
			return Translation{}, fmt.Errorf("translate chunk %d of %d: %w", i+1, len(chunks), err)
		}

		parts = append(parts, translated)
	}

	c.log.DebugContext(ctx, "Text is translated",
		"language", code,
		"chunks", len(chunks))

	return Translation{Text: strings.Join(parts, " "), Code: code, Language: name}, nil
}

func (c *Client) translateChunk(ctx context.Context, chunk string, code string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", code)
	query.Set("dt", "t")
	query.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_a/single?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"language", code)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return parseResponse(body)
}

// parseResponse joins the translated segments of a
// [[["target","source",...],...],...] payload.
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("parse response: invalid JSON")
	}

	segments := gjson.GetBytes(body, "0.#.0")
	if !segments.IsArray() {
		return "", errors.New("parse response: no translated segments")
	}

	var b strings.Builder
	for _, s := range segments.Array() {
		b.WriteString(s.String())
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("parse response: empty translation")
	}

	return out, nil
}
