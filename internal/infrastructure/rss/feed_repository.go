package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/domain/repository"
	"rssdigest/internal/infrastructure/retry"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	maxFeedBytes     = int64(5 * 1024 * 1024)
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Retry     retry.Policy
}

type feedRepository struct {
	client    *http.Client
	userAgent string
	policy    retry.Policy
	logger    zerolog.Logger
}

func NewFeedRepository(cfg Config, logger zerolog.Logger) repository.FeedRepository {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &feedRepository{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		policy:    cfg.Retry,
		logger:    logger,
	}
}

func (r *feedRepository) Fetch(ctx context.Context, source entity.Source) ([]*entity.FeedEntry, error) {
	logger := r.logger.With().Str("source", source.Name).Str("url", source.URL).Logger()

	var feed *gofeed.Feed
	err := retry.Do(ctx, r.policy, retry.IsTransient,
		func(attempt int, wait time.Duration, err error) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("feed fetch failed, retrying")
		},
		func(ctx context.Context) error {
			var err error
			feed, err = r.fetchOnce(ctx, source.URL)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RSS feed: %w", err)
	}

	entries := make([]*entity.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		var published time.Time
		switch {
		case item.PublishedParsed != nil:
			published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			published = *item.UpdatedParsed
		}

		entry := entity.NewFeedEntry(
			source.Name,
			strings.TrimSpace(item.Title),
			link,
			item.Description,
			published,
			item.GUID,
		)

		if matchesKeywords(entry, source.Keywords) {
			entries = append(entries, entry)
		}
	}

	logger.Debug().Int("entries", len(entries)).Msg("feed parsed")
	return entries, nil
}

func (r *feedRepository) fetchOnce(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("failed to parse RSS feed: %w", err))
	}
	return feed, nil
}

func matchesKeywords(entry *entity.FeedEntry, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(entry.Title + " " + entry.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
