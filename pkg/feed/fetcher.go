package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// HTTPFetcher retrieves and parses the Medium RSS feed. Every call re-fetches
// the full document, no caching and no conditional requests.
type HTTPFetcher struct {
	client    *http.Client
	url       string
	scanLimit int
	userAgent string
}

// Config holds fetcher configuration
type Config struct {
	URL       string
	ScanLimit int
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPFetcher creates a new feed fetcher
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.ScanLimit == 0 {
		cfg.ScanLimit = 100
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		url:       cfg.URL,
		scanLimit: cfg.ScanLimit,
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the feed and returns its entries, newest first as published
// by the source, truncated to the configured scan limit. Any fetch or parse
// failure is fatal to the run and returned to the caller.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	body, err := f.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	// gofeed always yields items and categories as slices, so a channel with a
	// single entry needs no special handling here
	parser := gofeed.NewParser()
	parsed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > f.scanLimit {
		items = items[:f.scanLimit]
	}

	result := make([]domain.FeedItem, 0, len(items))
	for _, item := range items {
		entry := domain.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			Categories:  item.Categories,
		}

		// parse publish time, left nil for the normalizer to default
		if item.PublishedParsed != nil {
			entry.Published = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.Published = item.UpdatedParsed
		}

		result = append(result, entry)
	}

	return result, nil
}

// fetch retrieves the raw feed document
func (f *HTTPFetcher) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
