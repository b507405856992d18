package article

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const telegramHost = "t.me"

var (
	telegramSlugRe   = regexp.MustCompile(`^\w{5,32}$`)
	telegramPostIDRe = regexp.MustCompile(`^\d+$`)
)

// telegramPost recognises https://t.me/<slug>/<id> and the /s/ variant.
func telegramPost(u *url.URL) (string, string, bool) {
	if u.Host != telegramHost {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 && parts[0] == "s" {
		parts = parts[1:]
	}

	if len(parts) != 2 || !telegramSlugRe.MatchString(parts[0]) || !telegramPostIDRe.MatchString(parts[1]) {
		return "", "", false
	}

	return parts[0], parts[1], true
}

func (f *Fetcher) fetchTelegramPost(ctx context.Context, slug, postID string) (Article, error) {
	canonicalURL := fmt.Sprintf("https://%s/%s/%s", telegramHost, slug, postID)
	embedURL := fmt.Sprintf("%s/%s/%s?embed=1&mode=tme", f.telegramOrigin, slug, postID)

	body, _, err := f.get(ctx, embedURL)
	if err != nil {
		return Article{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return Article{}, fmt.Errorf("create document from reader: %w", err)
	}

	var textBuilder strings.Builder
	doc.Find(".tgme_widget_message_text, .tgme_widget_message_caption").Each(
		func(_ int, inner *goquery.Selection) {
			inner.Find("br").Each(func(_ int, br *goquery.Selection) {
				br.ReplaceWithHtml("\n")
			})
			fragment := strings.TrimSpace(inner.Text())
			if fragment == "" {
				return
			}
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n")
			}
			textBuilder.WriteString(fragment)
		},
	)

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return Article{}, errors.Join(ErrNoContent, fmt.Errorf("telegram post %s/%s has no text", slug, postID))
	}

	title := strings.TrimSpace(doc.Find(".tgme_widget_message_owner_name").First().Text())
	if title == "" {
		title = "@" + slug
	}

	return Article{URL: canonicalURL, Title: title, Text: text, Source: "telegram"}, nil
}
