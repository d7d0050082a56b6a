package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/infrastructure/html"
	"rssdigest/internal/infrastructure/retry"
)

func newTestFetcher(timeout time.Duration, attempts int) *webScraper {
	return NewContentFetcher(Config{
		Timeout: timeout,
		Retry:   retry.Policy{Attempts: attempts, BaseDelay: time.Millisecond},
	}, zerolog.Nop()).(*webScraper)
}

func TestContentFetcher_FetchContent_Success(t *testing.T) {
	page := `
	<!DOCTYPE html>
	<html>
	<head><title>Test Page</title></head>
	<body>
		<header>Header content</header>
		<nav>Navigation</nav>
		<article>
			<h1>Article Title</h1>
			<p>This is the main content of the article.</p>
			<p>It contains important information.</p>
		</article>
		<footer>Footer content</footer>
		<script>console.log('test');</script>
	</body>
	</html>
	`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page))
	}))
	defer server.Close()

	fetcher := newTestFetcher(5*time.Second, 1)

	content, err := fetcher.FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(content, "main content") {
		t.Error("expected content to contain article text")
	}
	if strings.Contains(content, "console.log") {
		t.Error("expected script content to be removed")
	}
}

func TestContentFetcher_FetchContent_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`<html><body><article>Body text</article></body></html>`))
	}))
	defer server.Close()

	if _, err := newTestFetcher(5*time.Second, 1).FetchContent(context.Background(), server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(got.Get("User-Agent"), "Mozilla/5.0") {
		t.Errorf("expected browser user agent, got %q", got.Get("User-Agent"))
	}
	if got.Get("Accept-Language") == "" {
		t.Error("expected Accept-Language header")
	}
}

func TestContentFetcher_FetchContent_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(5*time.Second, 3).FetchContent(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 status, got nil")
	}

	if !strings.Contains(err.Error(), "HTTP status 404") {
		t.Errorf("expected HTTP status error, got: %v", err)
	}
}

func TestContentFetcher_FetchContent_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<html><body><article>Recovered body</article></body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher(5*time.Second, 3).FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "Recovered body" {
		t.Errorf("unexpected content: %q", content)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestContentFetcher_FetchContent_NotAcceptableNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotAcceptable)
	}))
	defer server.Close()

	_, err := newTestFetcher(5*time.Second, 3).FetchContent(context.Background(), server.URL)

	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotAcceptable {
		t.Fatalf("expected 406 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestContentFetcher_FetchContent_TooShort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article>Short.</article></body></html>`))
	}))
	defer server.Close()

	fetcher := NewContentFetcher(Config{Timeout: 5 * time.Second, MinLength: 100}, zerolog.Nop())

	_, err := fetcher.FetchContent(context.Background(), server.URL)
	if !errors.Is(err, html.ErrContentTooShort) {
		t.Errorf("expected ErrContentTooShort, got %v", err)
	}
}

func TestContentFetcher_FetchContent_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestFetcher(100*time.Millisecond, 1).FetchContent(context.Background(), server.URL)
	if err == nil {
		t.Error("expected timeout error, got nil")
	}
}
