// Package html extracts readable article text from news pages.
package html

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"rssdigest/internal/domain/repository"
)

// ErrContentTooShort is repository.ErrContentTooShort.
var ErrContentTooShort = repository.ErrContentTooShort

// siteSelectors lists, per domain, the containers that hold the article body.
var siteSelectors = map[string][]string{
	"vnexpress.net": {
		"article.fck_detail",
		"div.fck_detail",
		"div.Normal",
		"div.content_detail",
	},
	"vietstock.vn": {
		"div.article-content",
		"div.content-news",
		"div.news-content",
		"div.detail-content",
		"div.content-detail",
		"div.entry-content",
		"article",
	},
	"laodong.vn": {
		"div.article-content",
		"div.content-detail",
		"div.news-content",
		"article",
	},
}

var genericSelectors = []string{
	"article",
	"main",
	".post-content",
	".entry-content",
	".article-body",
	".article-content",
	"div.main-content",
	"#content",
	".content",
}

const noiseSelector = "script, style, nav, header, footer, aside, noscript, iframe, .ad, .advertisement"

type Options struct {
	MinLength int // in runes; shorter text is rejected
	MaxLength int // in runes; longer text is truncated, 0 means unlimited
}

// SelectorsFor returns the site specific selectors for pageURL followed by
// the generic ones. A leading "www." is ignored.
func SelectorsFor(pageURL string) []string {
	var host string
	if u, err := url.Parse(pageURL); err == nil {
		host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	site := siteSelectors[host]
	out := make([]string, 0, len(site)+len(genericSelectors))
	out = append(out, site...)
	return append(out, genericSelectors...)
}

// ExtractText returns the collapsed text of the article in body.
func ExtractText(body []byte, pageURL string, opts Options) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	var text string
	for _, selector := range SelectorsFor(pageURL) {
		candidate := collapse(doc.Find(selector).First().Text())
		if runeLen(candidate) >= opts.MinLength && candidate != "" {
			text = candidate
			break
		}
	}

	if text == "" {
		text = readable(body, pageURL)
	}
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}

	if text == "" {
		return "", fmt.Errorf("empty article content")
	}
	if n := runeLen(text); n < opts.MinLength {
		return "", fmt.Errorf("%w: %d characters", ErrContentTooShort, n)
	}
	if opts.MaxLength > 0 && runeLen(text) > opts.MaxLength {
		text = string([]rune(text)[:opts.MaxLength])
	}

	return text, nil
}

func readable(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}
