package article

import (
	"bytes"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote"

// fromHTML prefers the readability rendering and falls back to block level
// elements, then to stripped markup, when the rendering is too short.
func fromHTML(u *url.URL, body []byte) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Article{}, err
	}

	res := Article{URL: u.String(), Title: pageTitle(doc), Source: "readability"}

	if parsed, err := readability.FromReader(bytes.NewReader(body), u); err == nil {
		var buf strings.Builder
		if err = parsed.RenderText(&buf); err == nil {
			res.Text = strings.TrimSpace(buf.String())
		}
	}

	if utf8.RuneCountInString(res.Text) < minArticleRunes {
		if text := blockText(doc); utf8.RuneCountInString(text) > utf8.RuneCountInString(res.Text) {
			res.Text, res.Source = text, "blocks"
		}
	}

	if res.Text == "" {
		res.Text = strings.Join(strings.Fields(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(string(body)))), " ")
		res.Source = "stripped"
	}

	if res.Text == "" {
		return Article{}, ErrNoContent
	}

	return res, nil
}

func pageTitle(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if content = strings.TrimSpace(content); content != "" {
			return content
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

func blockText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var parts []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are collected through their innermost element.
		if s.Find(blockSelector).Length() > 0 {
			return
		}

		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n\n")
}
