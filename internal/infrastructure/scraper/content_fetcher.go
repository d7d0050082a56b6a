package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/repository"
	"rssdigest/internal/infrastructure/html"
	"rssdigest/internal/infrastructure/retry"
)

const maxHTMLBytes = int64(2 * 1024 * 1024)

// browserHeaders make news sites that reject bots (406/403) serve the page.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

type Config struct {
	Timeout   time.Duration
	Retry     retry.Policy
	MinLength int
	MaxLength int
}

type webScraper struct {
	client  *http.Client
	policy  retry.Policy
	extract html.Options
	logger  zerolog.Logger
}

// NewContentFetcher returns a ContentFetcher that downloads pages over HTTP
// and extracts their article text.
func NewContentFetcher(cfg Config, logger zerolog.Logger) repository.ContentFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &webScraper{
		client: &http.Client{Timeout: timeout},
		policy: cfg.Retry,
		extract: html.Options{
			MinLength: cfg.MinLength,
			MaxLength: cfg.MaxLength,
		},
		logger: logger,
	}
}

func (s *webScraper) FetchContent(ctx context.Context, url string) (string, error) {
	var body []byte
	err := retry.Do(ctx, s.policy, retry.IsTransient,
		func(attempt int, wait time.Duration, err error) {
			s.logger.Warn().Err(err).Str("url", url).Int("attempt", attempt).Dur("wait", wait).Msg("article fetch failed, retrying")
		},
		func(ctx context.Context) error {
			var err error
			body, err = s.download(ctx, url)
			return err
		})
	if err != nil {
		return "", err
	}

	return html.ExtractText(body, url, s.extract)
}

func (s *webScraper) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
