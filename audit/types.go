// Package audit talks to the upstream Snyk audit-log API and carries the
// log record types used across the dashboard.
package audit

import (
	"strings"
	"time"
)

// LogItem is one audit-log record as returned by the upstream API.
// Content is free-form JSON whose shape varies per event type.
type LogItem struct {
	Event     string         `json:"event"`
	Created   time.Time      `json:"created"`
	Content   map[string]any `json:"content,omitempty"`
	GroupID   string         `json:"group_id,omitempty"`
	OrgID     string         `json:"org_id,omitempty"`
	ProjectID string         `json:"project_id,omitempty"`
}

// UserIdentifier extracts who performed the event, falling back through
// the known content fields.
func (l LogItem) UserIdentifier() string {
	if email, ok := l.Content["user_email"].(string); ok && email != "" {
		return email
	}
	if id, ok := l.Content["user_id"].(string); ok && id != "" {
		return id
	}
	return "Unknown"
}

// Page is one page of search results plus the cursor for the next.
type Page struct {
	Items      []LogItem `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
	Total      int       `json:"total"`
}

// SearchParams mirror the upstream search filters. Zero values are
// omitted from the request.
type SearchParams struct {
	From          time.Time
	To            time.Time
	Events        []string
	ExcludeEvents []string
	Size          int
	Cursor        string
	Search        string // client-side substring filter, not sent upstream
}

// Credentials scope a request to a group or org. GroupID takes
// precedence when both are set.
type Credentials struct {
	Token      string
	GroupID    string
	OrgID      string
	APIVersion string
}

// FilterItems applies the free-text search term the upstream API does
// not support: case-insensitive substring match across event name and
// stringified content values.
func FilterItems(items []LogItem, term string) []LogItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	filtered := make([]LogItem, 0, len(items))
	for _, item := range items {
		if item.matches(term) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func (l LogItem) matches(term string) bool {
	if strings.Contains(strings.ToLower(l.Event), term) {
		return true
	}
	for _, v := range l.Content {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}
