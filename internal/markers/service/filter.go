package service

import (
	"strings"

	"mapshare_backend/internal/markers/catalog"
	"mapshare_backend/internal/markers/repository"
	"mapshare_backend/internal/markers/transport"
)

// matcher is a compiled marker filter.
type matcher struct {
	categories    map[string]bool
	uncategorized bool
	needle        string
}

func newMatcher(f transport.Filter) matcher {
	m := matcher{needle: strings.ToLower(strings.TrimSpace(f.Query))}
	for _, id := range f.Categories {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if id == catalog.Uncategorized {
			m.uncategorized = true
			continue
		}
		if m.categories == nil {
			m.categories = make(map[string]bool)
		}
		m.categories[id] = true
	}
	return m
}

func (m matcher) empty() bool {
	return m.categories == nil && !m.uncategorized && m.needle == ""
}

func (m matcher) match(mk repository.Marker) bool {
	return m.matchCategory(mk) && m.matchText(mk)
}

func (m matcher) matchCategory(mk repository.Marker) bool {
	if m.categories == nil && !m.uncategorized {
		return true
	}
	if mk.CategoryID == nil || *mk.CategoryID == "" {
		return m.uncategorized
	}
	return m.categories[*mk.CategoryID]
}

func (m matcher) matchText(mk repository.Marker) bool {
	if m.needle == "" {
		return true
	}
	if m.contains(mk.Title) || m.containsPtr(mk.Description) || m.containsPtr(mk.Address) {
		return true
	}
	if mk.CategoryID != nil && m.contains(catalog.Name(*mk.CategoryID)) {
		return true
	}
	for _, tip := range mk.Tips {
		if m.contains(tip) {
			return true
		}
	}
	return false
}

func (m matcher) contains(s string) bool {
	return strings.Contains(strings.ToLower(s), m.needle)
}

func (m matcher) containsPtr(s *string) bool {
	return s != nil && m.contains(*s)
}

// applyFilter keeps the order of markers.
func applyFilter(markers []repository.Marker, f transport.Filter) []repository.Marker {
	m := newMatcher(f)
	if m.empty() {
		return markers
	}

	out := make([]repository.Marker, 0, len(markers))
	for _, mk := range markers {
		if m.match(mk) {
			out = append(out, mk)
		}
	}
	return out
}
