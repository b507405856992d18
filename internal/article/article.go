package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	defaultClientTimeout = 20 * time.Second
	maxBodyBytes         = 8 << 20
	minArticleRunes      = 200
)

var (
	ErrInvalidURL = errors.New("URL must be an absolute http or https address")
	ErrNoContent  = errors.New("no article text found at URL")
)

// Article is the readable text behind a URL.
type Article struct {
	URL    string
	Title  string
	Text   string
	Source string
}

type Fetcher struct {
	client         *http.Client
	feedParser     *gofeed.Parser
	telegramOrigin string
	log            *slog.Logger
}

func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	return &Fetcher{
		client:         client,
		feedParser:     gofeed.NewParser(),
		telegramOrigin: "https://" + telegramHost,
		log:            log,
	}
}

// FindURLs returns the distinct http(s) URLs found in free text.
func FindURLs(text string) []string {
	re := xurls.Strict()

	var out []string
	seen := make(map[string]struct{})
	for _, u := range re.FindAllString(text, -1) {
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}
		out = append(out, u)
	}

	return out
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	return u, nil
}

// Fetch downloads rawURL and returns its main text. Feeds resolve to their
// newest entry and Telegram post links to the post text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return Article{}, err
	}

	if slug, postID, ok := telegramPost(u); ok {
		return f.fetchTelegramPost(ctx, slug, postID)
	}

	body, contentType, err := f.get(ctx, u.String())
	if err != nil {
		return Article{}, err
	}

	if looksLikeFeed(contentType, body) {
		return f.fromFeed(ctx, u, body)
	}

	return fromHTML(u, body)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req) //nolint:gosec // user supplied URL is the feature
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func looksLikeFeed(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") {
		return true
	}

	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))

	return bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<feed"))
}
