package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
	"DailyByte/internal/scanner"
)

const techFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Tech</title>
  <item>
    <title>Fresh   launch</title>
    <link>https://tech.example/fresh</link>
    <description>&lt;p&gt;New &lt;b&gt;model&lt;/b&gt; released&lt;/p&gt;</description>
    <pubDate>Mon, 03 Mar 2025 10:00:00 GMT</pubDate>
    <guid>fresh-1</guid>
  </item>
  <item>
    <title>Old news</title>
    <link>https://tech.example/old</link>
    <description>stale</description>
    <pubDate>Fri, 28 Feb 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>No link</title>
    <description>dropped</description>
    <pubDate>Mon, 03 Mar 2025 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Undated</title>
    <link>https://tech.example/undated</link>
  </item>
</channel>
</rss>`

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(techFeed))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	sc := NewFeedScanner(Options{Client: server.Client()})

	items, err := sc.Scan(context.Background(), scanner.Request{
		Family:     "rss",
		SourceType: domain.SourceArticle,
		Now:        now,
		Cutoff:     now.Add(-24 * time.Hour),
		MaxItems:   20,
		Sources: []scanner.Source{
			{Name: "broken", URL: server.URL + "/broken.xml"},
			{Name: "arxiv_ai", URL: server.URL + "/feed.xml", SourceType: domain.SourcePaper},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	fresh := items[0]
	require.Equal(t, "Fresh launch", fresh.Title)
	require.Equal(t, "New model released", fresh.Content)
	require.Equal(t, "https://tech.example/fresh", fresh.URL)
	require.Equal(t, domain.SourcePaper, fresh.SourceType)
	require.Equal(t, "arxiv_ai", fresh.Author)
	require.Equal(t, time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC), fresh.PublishedAt)
	require.Equal(t, "fresh-1", fresh.RawData["guid"])

	undated := items[1]
	require.Equal(t, "https://tech.example/undated", undated.URL)
	require.Equal(t, now, undated.PublishedAt)
}

func TestFeedScannerHonoursCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(techFeed))
	}))
	defer server.Close()

	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	sc := NewFeedScanner(Options{Client: server.Client()})
	items, err := sc.Scan(context.Background(), scanner.Request{
		Family:     "world",
		SourceType: domain.SourceWorld,
		Now:        now,
		Cutoff:     now.Add(-24 * time.Hour),
		MaxItems:   1,
		Sources:    []scanner.Source{{Name: "bbc_world", URL: server.URL}},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, domain.SourceWorld, items[0].SourceType)
}

func TestFeedScannerRequiresSources(t *testing.T) {
	t.Parallel()

	_, err := NewFeedScanner(Options{}).Scan(context.Background(), scanner.Request{Family: "rss"})
	require.ErrorContains(t, err, "no sources")
}
