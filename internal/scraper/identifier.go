package scraper

import (
	"net/url"
	"strings"
)

const (
	searchBaseURL = "https://www.linkedin.com/jobs/search/"
	// listingMarker identifies hrefs that point at a single posting.
	listingMarker = "linkedin.com/jobs/view/"
)

// BuildSearchURL returns the listing-search view for term and location.
func BuildSearchURL(term, location string) string {
	return searchBaseURL + "?keywords=" + queryEscape(term) + "&location=" + queryEscape(location)
}

func queryEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(value)), "+", "%20")
}

// NormalizeIdentifier drops the query string so tracking-parameter variants of
// one posting collapse to a single identifier.
func NormalizeIdentifier(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// IsListingURL reports whether href points at a posting view.
func IsListingURL(href string) bool {
	return href != "" && strings.Contains(href, listingMarker)
}

// IdentifierSet is a set of identifiers that iterates in insertion order.
type IdentifierSet struct {
	index map[string]struct{}
	order []string
}

func NewIdentifierSet() *IdentifierSet {
	return &IdentifierSet{index: map[string]struct{}{}}
}

// Add inserts id and reports whether it was new.
func (s *IdentifierSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *IdentifierSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *IdentifierSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Items returns a copy of the identifiers.
func (s *IdentifierSet) Items() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}
