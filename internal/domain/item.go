package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the naive UTC layout used for every timestamp in pipeline documents.
const TimestampLayout = "2006-01-02T15:04:05"

// SourceType classifies where a RawItem came from.
type SourceType string

const (
	SourceArticle    SourceType = "article"
	SourceTweet      SourceType = "tweet"
	SourceVideo      SourceType = "video"
	SourcePaper      SourceType = "paper"
	SourceWorld      SourceType = "world"
	SourceNewsletter SourceType = "newsletter"
)

var sourceTypes = map[SourceType]struct{}{
	SourceArticle:    {},
	SourceTweet:      {},
	SourceVideo:      {},
	SourcePaper:      {},
	SourceWorld:      {},
	SourceNewsletter: {},
}

// ParseSourceType validates a raw source type string.
func ParseSourceType(raw string) (SourceType, bool) {
	st := SourceType(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := sourceTypes[st]
	return st, ok
}

// RawItem is one piece of collected content, normalized by a source adapter.
type RawItem struct {
	Title       string
	Content     string
	URL         string
	SourceName  string
	SourceType  SourceType
	Author      string
	PublishedAt time.Time
	Engagement  map[string]float64
	RawData     map[string]any
	Truncated   bool
}

// HoursAgo is a view over PublishedAt relative to now, never stored.
func (i RawItem) HoursAgo(now time.Time) float64 {
	return now.Sub(i.PublishedAt).Hours()
}

// CategoryHint returns the configured category hint recorded by the newsletter adapter.
func (i RawItem) CategoryHint() string {
	if i.RawData == nil {
		return ""
	}
	hint, _ := i.RawData["category_hint"].(string)
	return hint
}

// RawItemDocument is the flat JSON shape of a RawItem.
type RawItemDocument struct {
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	URL         string             `json:"url"`
	SourceName  string             `json:"source_name"`
	SourceType  SourceType         `json:"source_type"`
	Author      string             `json:"author"`
	PublishedAt string             `json:"published_at"`
	HoursAgo    float64            `json:"hours_ago"`
	Engagement  map[string]float64 `json:"engagement"`
	RawData     map[string]any     `json:"raw_data"`
	Truncated   bool               `json:"truncated,omitempty"`
}

// Document serializes the item; hours_ago is computed against now.
func (i RawItem) Document(now time.Time) RawItemDocument {
	engagement := i.Engagement
	if engagement == nil {
		engagement = map[string]float64{}
	}
	rawData := i.RawData
	if rawData == nil {
		rawData = map[string]any{}
	}
	return RawItemDocument{
		Title:       i.Title,
		Content:     i.Content,
		URL:         i.URL,
		SourceName:  i.SourceName,
		SourceType:  i.SourceType,
		Author:      i.Author,
		PublishedAt: FormatTimestamp(i.PublishedAt),
		HoursAgo:    RoundHours(i.HoursAgo(now)),
		Engagement:  engagement,
		RawData:     rawData,
		Truncated:   i.Truncated,
	}
}

// Item parses the document back into a RawItem. Stored hours_ago is ignored.
func (d RawItemDocument) Item() (RawItem, error) {
	st, ok := ParseSourceType(string(d.SourceType))
	if !ok {
		return RawItem{}, fmt.Errorf("item %q: unknown source_type %q", d.URL, d.SourceType)
	}
	publishedAt, err := ParseTimestamp(d.PublishedAt)
	if err != nil {
		return RawItem{}, fmt.Errorf("item %q: %w", d.URL, err)
	}
	return RawItem{
		Title:       d.Title,
		Content:     d.Content,
		URL:         d.URL,
		SourceName:  d.SourceName,
		SourceType:  st,
		Author:      d.Author,
		PublishedAt: publishedAt,
		Engagement:  d.Engagement,
		RawData:     d.RawData,
		Truncated:   d.Truncated,
	}, nil
}

// CollectionBatch is the Collector output.
type CollectionBatch struct {
	CollectedAt time.Time
	TotalItems  int
	Breakdown   map[string]int
	Items       []RawItem
}

// NewCollectionBatch sorts items by recency (stable) and fills the counters.
func NewCollectionBatch(collectedAt time.Time, breakdown map[string]int, items []RawItem) CollectionBatch {
	sorted := make([]RawItem, len(items))
	copy(sorted, items)
	SortByRecency(sorted)

	counts := make(map[string]int, len(breakdown))
	for family, n := range breakdown {
		counts[family] = n
	}

	return CollectionBatch{
		CollectedAt: collectedAt.UTC(),
		TotalItems:  len(sorted),
		Breakdown:   counts,
		Items:       sorted,
	}
}

// SortByRecency orders items newest first, keeping emission order on ties.
func SortByRecency(items []RawItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

// URLIndex maps every item url to the first item carrying it.
func (b CollectionBatch) URLIndex() map[string]RawItem {
	index := make(map[string]RawItem, len(b.Items))
	for _, item := range b.Items {
		if item.URL == "" {
			continue
		}
		if _, ok := index[item.URL]; !ok {
			index[item.URL] = item
		}
	}
	return index
}

// BatchDocument is the JSON handed from the Collector to the Curator.
type BatchDocument struct {
	CollectedAt string            `json:"collected_at"`
	TotalItems  int               `json:"total_items"`
	Breakdown   map[string]int    `json:"breakdown"`
	Items       []RawItemDocument `json:"items"`
}

// Document serializes the batch with hours_ago computed against now.
func (b CollectionBatch) Document(now time.Time) BatchDocument {
	items := make([]RawItemDocument, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, item.Document(now))
	}
	breakdown := b.Breakdown
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	return BatchDocument{
		CollectedAt: FormatTimestamp(b.CollectedAt),
		TotalItems:  b.TotalItems,
		Breakdown:   breakdown,
		Items:       items,
	}
}

// Batch parses the document.
func (d BatchDocument) Batch() (CollectionBatch, error) {
	collectedAt, err := ParseTimestamp(d.CollectedAt)
	if err != nil {
		return CollectionBatch{}, fmt.Errorf("collected_at: %w", err)
	}

	items := make([]RawItem, 0, len(d.Items))
	for _, doc := range d.Items {
		item, err := doc.Item()
		if err != nil {
			return CollectionBatch{}, err
		}
		items = append(items, item)
	}

	return CollectionBatch{
		CollectedAt: collectedAt,
		TotalItems:  d.TotalItems,
		Breakdown:   d.Breakdown,
		Items:       items,
	}, nil
}

// EncodeBatch renders the batch document as indented JSON.
func EncodeBatch(b CollectionBatch, now time.Time) ([]byte, error) {
	return json.MarshalIndent(b.Document(now), "", "  ")
}

// DecodeBatch parses a batch document.
func DecodeBatch(data []byte) (CollectionBatch, error) {
	var doc BatchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return CollectionBatch{}, fmt.Errorf("decode batch: %w", err)
	}
	return doc.Batch()
}

// FormatTimestamp renders t as a naive UTC instant.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts naive ISO-8601 (with optional fraction) and RFC3339 values.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// RoundHours rounds to one decimal place.
func RoundHours(h float64) float64 {
	return math.Round(h*10) / 10
}
