package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"rssdigest/internal/domain/entity"
)

type mockFeedRepository struct {
	mu      sync.Mutex
	entries map[string][]*entity.FeedEntry
	errs    map[string]error
	calls   []string
}

func (m *mockFeedRepository) Fetch(ctx context.Context, source entity.Source) ([]*entity.FeedEntry, error) {
	m.mu.Lock()
	m.calls = append(m.calls, source.Name)
	m.mu.Unlock()

	if err := m.errs[source.Name]; err != nil {
		return nil, err
	}
	return m.entries[source.Name], nil
}

type mockContentFetcher struct {
	mu       sync.Mutex
	contents map[string]string
	errs     map[string]error
	fetched  []string
}

func (m *mockContentFetcher) FetchContent(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()

	if err := m.errs[url]; err != nil {
		return "", err
	}
	if content, ok := m.contents[url]; ok {
		return content, nil
	}
	return "Nội dung của " + url, nil
}

type summarizeCall struct {
	content string
	title   string
}

type mockSummarizer struct {
	enabled bool
	summary string
	err     error
	// failTitles makes Summarize fail for the listed titles only.
	failTitles map[string]bool
	calls      []summarizeCall
}

func (m *mockSummarizer) Summarize(ctx context.Context, content, title string) (string, error) {
	m.calls = append(m.calls, summarizeCall{content: content, title: title})
	if m.err != nil {
		return "", m.err
	}
	if m.failTitles[title] {
		return "", errors.New("model overloaded")
	}
	if title != "" {
		return m.summary + " " + title, nil
	}
	return m.summary, nil
}

func (m *mockSummarizer) IsEnabled() bool {
	return m.enabled
}

type sentMessage struct {
	chat string
	text string
	at   time.Time
	done time.Time
}

type mockMessageRepository struct {
	mu   sync.Mutex
	sent []sentMessage
	// failOn lists 1-based call numbers that fail.
	failOn map[int]bool
	calls  int
	// delay is how long each Send takes.
	delay time.Duration
}

func (m *mockMessageRepository) Send(ctx context.Context, chatTarget, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	at := time.Now()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.failOn[m.calls] {
		return errors.New("telegram API error: Bad Gateway")
	}
	m.sent = append(m.sent, sentMessage{chat: chatTarget, text: text, at: at, done: time.Now()})
	return nil
}

type mockLedgerRepository struct {
	initial []string
	saved   *entity.SeenLinkSet
	saves   int
	err     error
}

func (m *mockLedgerRepository) Load(ctx context.Context) *entity.SeenLinkSet {
	return entity.NewSeenLinkSet(m.initial...)
}

func (m *mockLedgerRepository) Save(ctx context.Context, set *entity.SeenLinkSet) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.saved = entity.NewSeenLinkSet(set.Links()...)
	return nil
}
