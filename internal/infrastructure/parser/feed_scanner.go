package parser

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"DailyByte/internal/domain"
	"DailyByte/internal/scanner"
)

// FeedScanner reads RSS/Atom feeds (tech news, world news, YouTube channel feeds).
type FeedScanner struct {
	fetcher
	parser *gofeed.Parser
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner builds a gofeed-backed scanner.
func NewFeedScanner(opts Options) *FeedScanner {
	return &FeedScanner{fetcher: newFetcher(opts), parser: gofeed.NewParser()}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches every configured feed; a failing feed is logged and skipped.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no sources provided for family %s", req.Family)
	}

	var items []domain.RawItem
	for _, src := range req.Sources {
		found, err := f.scanFeed(ctx, req, src)
		if err != nil {
			f.logger.Warn("feed failed", "family", req.Family, "source", src.Name, "error", err)
			continue
		}
		f.logger.Debug("feed scanned", "family", req.Family, "source", src.Name, "count", len(found))
		items = append(items, found...)
	}
	return items, nil
}

func (f *FeedScanner) scanFeed(ctx context.Context, req scanner.Request, src scanner.Source) ([]domain.RawItem, error) {
	body, err := f.get(ctx, src.URL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	now := req.Now
	if now.IsZero() {
		now = f.clock()
	}
	sourceType := req.TypeFor(src)

	entries := feed.Items
	if req.MaxItems > 0 && len(entries) > req.MaxItems {
		entries = entries[:req.MaxItems]
	}

	items := make([]domain.RawItem, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Link == "" {
			continue
		}
		publishedAt := entryTime(entry, now)
		if publishedAt.Before(req.Cutoff) {
			continue
		}
		items = append(items, domain.RawItem{
			Title:       collapse(entry.Title),
			Content:     entryContent(entry),
			URL:         entry.Link,
			SourceName:  src.Name,
			SourceType:  sourceType,
			Author:      entryAuthor(entry, src.Name),
			PublishedAt: publishedAt,
			Engagement:  map[string]float64{},
			RawData:     entryRawData(feed, entry),
		})
	}
	return items, nil
}

// entryTime prefers the published date, then the updated date, then collection time.
func entryTime(entry *gofeed.Item, now time.Time) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.UTC()
	default:
		return now.UTC()
	}
}

func entryContent(entry *gofeed.Item) string {
	if entry.Description != "" {
		return htmlText(entry.Description)
	}
	return htmlText(entry.Content)
}

func entryAuthor(entry *gofeed.Item, fallback string) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	for _, person := range entry.Authors {
		if person != nil && person.Name != "" {
			return person.Name
		}
	}
	return fallback
}

func entryRawData(feed *gofeed.Feed, entry *gofeed.Item) map[string]any {
	raw := map[string]any{"feed_title": feed.Title}
	if entry.GUID != "" {
		raw["guid"] = entry.GUID
	}
	if len(entry.Categories) > 0 {
		raw["categories"] = entry.Categories
	}
	if entry.Image != nil && entry.Image.URL != "" {
		raw["image"] = entry.Image.URL
	}
	return raw
}
