package article

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// fromFeed summarises the newest entry of an RSS or Atom feed. Entries that
// only carry a teaser are replaced by the linked page.
func (f *Fetcher) fromFeed(ctx context.Context, feedURL *url.URL, body []byte) (Article, error) {
	parsed, err := f.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return Article{}, fmt.Errorf("parse feed: %w", err)
	}

	if len(parsed.Items) == 0 {
		return Article{}, ErrNoContent
	}

	item := parsed.Items[0]
	for _, candidate := range parsed.Items[1:] {
		if candidate.PublishedParsed != nil && item.PublishedParsed != nil &&
			candidate.PublishedParsed.After(*item.PublishedParsed) {
			item = candidate
		}
	}

	content := item.Content
	if strings.TrimSpace(content) == "" {
		content = item.Description
	}
	text := strings.Join(strings.Fields(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(content))), " ")

	link := strings.TrimSpace(item.Link)
	if utf8.RuneCountInString(text) < minArticleRunes && link != "" {
		linked, err := f.fetchLinkedPage(ctx, link)
		if err == nil {
			return linked, nil
		}

		f.log.WarnContext(ctx, "Failed to fetch feed entry page so feed text will be used",
			"error", err,
			"feedURL", feedURL.String(),
			"entryURL", link)
	}

	if text == "" {
		return Article{}, ErrNoContent
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = strings.TrimSpace(parsed.Title)
	}

	return Article{URL: firstNonEmpty(link, feedURL.String()), Title: title, Text: text, Source: "feed"}, nil
}

func (f *Fetcher) fetchLinkedPage(ctx context.Context, rawURL string) (Article, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return Article{}, err
	}

	body, _, err := f.get(ctx, u.String())
	if err != nil {
		return Article{}, err
	}

	return fromHTML(u, body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
