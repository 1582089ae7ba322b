package domain

import "time"

// FeedItem represents a single entry parsed from the Medium RSS feed
type FeedItem struct {
	Title       string
	Link        string
	Description string
	Content     string // content:encoded body (if available)
	Categories  []string
	Published   *time.Time // nil when the feed omitted pubDate
}

// Article is a normalized feed entry ready for storage. ID is derived
// deterministically from the entry link (or title as a fallback), so the same
// logical post always maps to the same record.
type Article struct {
	ID          string
	Title       string
	MediumLink  string
	ImageLink   string // empty when no image was found in the body
	Tags        []string
	PublishedAt time.Time // UTC, whole seconds
}

// StoredArticle is an article record as persisted in the store
type StoredArticle struct {
	ID          string
	Title       string
	MediumLink  string
	ImageLink   string
	Tags        []string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestStats summarizes a single upsert batch
type IngestStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// RunResult is the outcome of one pipeline invocation. Skipped is set when
// another run held the task lock; Stats is populated only for executed runs.
type RunResult struct {
	Skipped bool         `json:"skipped"`
	Reason  string       `json:"reason,omitempty"`
	Stats   *IngestStats `json:"stats,omitempty"`
}
