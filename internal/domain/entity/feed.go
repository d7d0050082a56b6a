package entity

import "time"

// Source is a named feed endpoint.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	// Keywords, when set, keep only entries whose title or description mentions one of them.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

type FeedEntry struct {
	Source      string
	Title       string
	Link        string
	Description string
	Published   time.Time
	GUID        string
}

func NewFeedEntry(source, title, link, description string, published time.Time, guid string) *FeedEntry {
	if guid == "" {
		guid = link
	}
	return &FeedEntry{
		Source:      source,
		Title:       title,
		Link:        link,
		Description: description,
		Published:   published,
		GUID:        guid,
	}
}

func (f *FeedEntry) IsNewerThan(t time.Time) bool {
	return f.Published.After(t)
}
