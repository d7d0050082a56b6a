package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/infrastructure/retry"
)

const twoItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Article 1</title>
			<link>https://example.com/article1</link>
			<description>Giá vàng hôm nay</description>
			<guid>guid-1</guid>
			<pubDate>Mon, 02 Jan 2006 15:04:05 MST</pubDate>
		</item>
		<item>
			<title>Article 2</title>
			<link>https://example.com/article2</link>
			<description>Chứng khoán</description>
			<guid>guid-2</guid>
			<pubDate>Tue, 03 Jan 2006 15:04:05 MST</pubDate>
		</item>
	</channel>
</rss>`

func newTestRepository(attempts int) *feedRepository {
	repo := NewFeedRepository(Config{
		Timeout: 5 * time.Second,
		Retry:   retry.Policy{Attempts: attempts, BaseDelay: time.Millisecond},
	}, zerolog.Nop())
	return repo.(*feedRepository)
}

func serveFeed(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
}

func TestFeedRepository_Fetch_Success(t *testing.T) {
	server := serveFeed(twoItemFeed)
	defer server.Close()

	repo := newTestRepository(1)
	entries, err := repo.Fetch(context.Background(), entity.Source{Name: "Test", URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Article 1" {
		t.Errorf("expected title 'Article 1', got '%s'", entries[0].Title)
	}
	if entries[0].Link != "https://example.com/article1" {
		t.Errorf("expected link 'https://example.com/article1', got '%s'", entries[0].Link)
	}
	if entries[0].Source != "Test" {
		t.Errorf("expected source 'Test', got '%s'", entries[0].Source)
	}
	if entries[1].GUID != "guid-2" {
		t.Errorf("expected GUID 'guid-2', got '%s'", entries[1].GUID)
	}
	if entries[1].Published.IsZero() {
		t.Error("expected published time to be parsed")
	}
}

func TestFeedRepository_Fetch_SendsUserAgent(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(twoItemFeed))
	}))
	defer server.Close()

	repo := newTestRepository(1)
	if _, err := repo.Fetch(context.Background(), entity.Source{URL: server.URL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ua, "Mozilla/5.0") {
		t.Errorf("expected browser user agent, got %q", ua)
	}
}

func TestFeedRepository_Fetch_EmptyGUIDAndNoDate(t *testing.T) {
	rssXML := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Article Without GUID</title>
			<link>https://example.com/article</link>
		</item>
		<item>
			<title>Article Without Link</title>
		</item>
	</channel>
</rss>`

	server := serveFeed(rssXML)
	defer server.Close()

	entries, err := newTestRepository(1).Fetch(context.Background(), entity.Source{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (items without link are dropped), got %d", len(entries))
	}
	if entries[0].GUID != "https://example.com/article" {
		t.Errorf("expected GUID to fallback to link, got '%s'", entries[0].GUID)
	}
	if !entries[0].Published.IsZero() {
		t.Errorf("expected zero published time, got %v", entries[0].Published)
	}
}

func TestFeedRepository_Fetch_RetriesTransientStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(twoItemFeed))
	}))
	defer server.Close()

	entries, err := newTestRepository(3).Fetch(context.Background(), entity.Source{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestFeedRepository_Fetch_PermanentStatusNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestRepository(3).Fetch(context.Background(), entity.Source{URL: server.URL})
	if err == nil {
		t.Fatal("expected error for 403 response, got nil")
	}
	if !strings.Contains(err.Error(), "HTTP status 403") {
		t.Errorf("expected status in error, got: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestFeedRepository_Fetch_InvalidXML(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("not xml at all"))
	}))
	defer server.Close()

	_, err := newTestRepository(3).Fetch(context.Background(), entity.Source{URL: server.URL})
	if err == nil {
		t.Error("expected error for invalid XML, got nil")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected malformed feed to be retried 3 times, got %d requests", got)
	}
}

func TestFeedRepository_Fetch_RecoversFromTruncatedFeed(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(twoItemFeed[:len(twoItemFeed)/2]))
			return
		}
		w.Write([]byte(twoItemFeed))
	}))
	defer server.Close()

	entries, err := newTestRepository(3).Fetch(context.Background(), entity.Source{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestFeedRepository_Fetch_ContextCancellation(t *testing.T) {
	server := serveFeed(twoItemFeed)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRepository(3).Fetch(ctx, entity.Source{URL: server.URL})
	if err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}

func TestFeedRepository_Fetch_KeywordFilter(t *testing.T) {
	server := serveFeed(twoItemFeed)
	defer server.Close()

	tests := []struct {
		name     string
		keywords []string
		want     int
	}{
		{"no keywords returns all", nil, 2},
		{"matches description", []string{"vàng"}, 1},
		{"matches title case-insensitively", []string{"ARTICLE 2"}, 1},
		{"no match", []string{"bóng đá"}, 0},
		{"blank keywords ignored", []string{"  "}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := newTestRepository(1).Fetch(context.Background(), entity.Source{URL: server.URL, Keywords: tt.keywords})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("expected 0 for garbage, got %v", got)
	}
}
