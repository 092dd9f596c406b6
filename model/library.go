package model

import (
	"sort"
	"strings"
	"time"
)

// LibraryItem is a reusable snippet a user can inline while typing.
type LibraryItem struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Tags        []string  `json:"tags"`
	FrequentUse bool      `json:"frequent_use"`
	CreatedAt   time.Time `json:"created_at"`
}

// Matches does a case-insensitive substring match over name, value and tags.
// An empty query matches everything.
func (i LibraryItem) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(i.Name), q) || strings.Contains(strings.ToLower(i.Value), q) {
		return true
	}
	for _, tag := range i.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// SearchLibrary filters items by query, orders frequent-use items first and
// then by name, and truncates to limit (0 = no limit).
func SearchLibrary(items []LibraryItem, query string, limit int) []LibraryItem {
	var out []LibraryItem
	for _, it := range items {
		if it.Matches(query) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].FrequentUse != out[b].FrequentUse {
			return out[a].FrequentUse
		}
		return strings.ToLower(out[a].Name) < strings.ToLower(out[b].Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
