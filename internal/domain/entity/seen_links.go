package entity

import (
	"sort"
	"strings"
)

// SeenLinkSet is the set of article links already delivered.
type SeenLinkSet struct {
	links map[string]struct{}
}

func NewSeenLinkSet(links ...string) *SeenLinkSet {
	s := &SeenLinkSet{links: make(map[string]struct{}, len(links))}
	for _, l := range links {
		s.Add(l)
	}
	return s
}

// CanonicalLink trims surrounding whitespace and drops an in-page #fragment.
// Hash-routed fragments ("#/..." and "#!...") name distinct pages and are kept.
func CanonicalLink(link string) string {
	link = strings.TrimSpace(link)
	i := strings.IndexByte(link, '#')
	if i < 0 {
		return link
	}
	if frag := link[i+1:]; strings.HasPrefix(frag, "/") || strings.HasPrefix(frag, "!") {
		return link
	}
	return link[:i]
}

func (s *SeenLinkSet) Contains(link string) bool {
	_, ok := s.links[CanonicalLink(link)]
	return ok
}

// Add inserts link and reports whether it was new.
func (s *SeenLinkSet) Add(link string) bool {
	link = CanonicalLink(link)
	if link == "" {
		return false
	}
	if _, ok := s.links[link]; ok {
		return false
	}
	s.links[link] = struct{}{}
	return true
}

func (s *SeenLinkSet) Len() int {
	return len(s.links)
}

// Links returns the members sorted so that persisted files are stable.
func (s *SeenLinkSet) Links() []string {
	out := make([]string, 0, len(s.links))
	for l := range s.links {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
