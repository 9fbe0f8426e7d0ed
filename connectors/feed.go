package connectors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/workers"
)

const (
	// FeedName labels feed import results and metrics.
	FeedName = "feed"

	feedMaxEntries = 20
)

// ErrInvalidFeedURL is reported for feed URLs that are not absolute http(s) URLs.
var ErrInvalidFeedURL = errors.New("feed URL must be an absolute http or https URL")

// Feed imports the latest entries of an RSS, Atom or JSON feed.
type Feed struct {
	sink Sink
	opts options
}

// NewFeed creates the connector.
func NewFeed(sink Sink, opts ...Option) *Feed {
	return &Feed{sink: sink, opts: buildOptions(FeedName, "", opts)}
}

// Name returns the connector label.
func (f *Feed) Name() string { return FeedName }

// Import ingests the first 20 entries of the feed at feedURL, in feed order.
func (f *Feed) Import(ctx context.Context, feedURL string) Result {
	return guard(FeedName, f.opts.logger, func() Result {
		return f.importFeed(ctx, feedURL)
	})
}

// ImportAll imports several feeds concurrently on pool. Results follow the order of feedURLs.
func (f *Feed) ImportAll(ctx context.Context, pool *workers.Pool, feedURLs []string) []Result {
	return workers.Map(ctx, pool, feedURLs, f.Import)
}

func (f *Feed) importFeed(ctx context.Context, feedURL string) Result {
	feedURL = strings.TrimSpace(feedURL)
	if err := validateFeedURL(feedURL); err != nil {
		return parseFailure(KindMalformed, err)
	}

	body, err := f.opts.get(ctx, feedURL)
	if err != nil {
		return parseFailure(KindTransport, err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return parseFailure(KindMalformed, err)
	}

	entries := parsed.Items
	if len(entries) > feedMaxEntries {
		entries = entries[:feedMaxEntries]
	}
	if len(entries) == 0 {
		return Result{Connector: FeedName, Kind: KindEmpty, Message: "No items found in the RSS feed."}
	}

	items := make([]ingestion.Item, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		text := strings.TrimSpace(entry.Title)
		if text == "" {
			text = strings.TrimSpace(entry.Description)
		}
		if text == "" {
			skipped++
			continue
		}
		items = append(items, ingestion.Item{
			Text:   text,
			URL:    entry.Link,
			Date:   entryDate(entry),
			Source: core.SourceFeed,
		})
	}

	return store(ctx, f.sink, FeedName, items, skipped, func(count int) string {
		return fmt.Sprintf("Loaded %d items from the RSS feed into the vector store.", count)
	})
}

// entryDate prefers the published time, then the updated time. Neither
// leaves the date absent so it normalizes to now.
func entryDate(entry *gofeed.Item) core.DateInput {
	if entry.PublishedParsed != nil {
		return core.DateFromTimePtr(entry.PublishedParsed)
	}
	return core.DateFromTimePtr(entry.UpdatedParsed)
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFeedURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidFeedURL, raw)
	}
	return nil
}

func parseFailure(kind Kind, err error) Result {
	return Result{Connector: FeedName, Kind: kind, Err: err,
		Message: fmt.Sprintf("Error parsing RSS feed: %v", err)}
}
