package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
)

func TestNewCollectionBatchSortsStableAndCounts(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	items := []domain.RawItem{
		{URL: "https://a", PublishedAt: base.Add(-3 * time.Hour)},
		{URL: "https://b", PublishedAt: base.Add(-1 * time.Hour)},
		{URL: "https://c", PublishedAt: base.Add(-3 * time.Hour)},
		{URL: "https://d", PublishedAt: base},
	}

	batch := domain.NewCollectionBatch(base, map[string]int{"rss": 3, "x": 1}, items)

	require.Equal(t, 4, batch.TotalItems)
	sum := 0
	for _, n := range batch.Breakdown {
		sum += n
	}
	require.Equal(t, batch.TotalItems, sum)

	got := make([]string, 0, len(batch.Items))
	for i, item := range batch.Items {
		got = append(got, item.URL)
		if i > 0 {
			require.False(t, item.PublishedAt.After(batch.Items[i-1].PublishedAt))
		}
	}
	require.Equal(t, []string{"https://d", "https://b", "https://a", "https://c"}, got)
	require.Equal(t, "https://a", items[0].URL, "input slice must not be reordered")
}

func TestHoursAgoIsRecomputedPerSerialization(t *testing.T) {
	t.Parallel()

	published := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	item := domain.RawItem{URL: "https://a", SourceType: domain.SourceArticle, PublishedAt: published}

	first := item.Document(published.Add(2 * time.Hour))
	second := item.Document(published.Add(5*time.Hour + 30*time.Minute))

	require.Equal(t, 2.0, first.HoursAgo)
	require.Equal(t, 5.5, second.HoursAgo)
	require.Equal(t, "2025-03-03T00:00:00", first.PublishedAt)
	require.NotNil(t, first.Engagement)
}

func TestDecodeBatchIgnoresStoredHoursAgo(t *testing.T) {
	t.Parallel()

	raw := `{
	  "collected_at": "2025-03-03T10:00:00.123456",
	  "total_items": 1,
	  "breakdown": {"rss": 1},
	  "items": [{
	    "title": "t", "content": "c", "url": "https://a", "source_name": "hn",
	    "source_type": "article", "author": "hn",
	    "published_at": "2025-03-03T08:00:00Z", "hours_ago": 999,
	    "engagement": {}, "raw_data": {}
	  }]
	}`

	batch, err := domain.DecodeBatch([]byte(raw))
	require.NoError(t, err)
	require.Len(t, batch.Items, 1)
	require.Equal(t, time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC), batch.Items[0].PublishedAt)

	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.Equal(t, 1.0, batch.Items[0].Document(now).HoursAgo)
}

func TestDecodeBatchRejectsUnknownSourceType(t *testing.T) {
	t.Parallel()

	raw := `{"collected_at":"2025-03-03T10:00:00","total_items":1,"breakdown":{},
	  "items":[{"url":"https://a","source_type":"podcast","published_at":"2025-03-03T08:00:00"}]}`

	_, err := domain.DecodeBatch([]byte(raw))
	require.ErrorContains(t, err, "podcast")
}

func TestAnalysisAcceptsTextOrBullets(t *testing.T) {
	t.Parallel()

	var text domain.CuratedDigest
	require.NoError(t, json.Unmarshal([]byte(`{"daily_analysis":"one block"}`), &text))
	require.Equal(t, "one block", text.Analysis.Text)

	var bullets domain.CuratedDigest
	require.NoError(t, json.Unmarshal([]byte(`{"daily_analysis":["a","b"]}`), &bullets))
	require.Equal(t, []string{"a", "b"}, bullets.Analysis.Bullets)

	encoded, err := json.Marshal(bullets.Analysis)
	require.NoError(t, err)
	require.JSONEq(t, `["a","b"]`, string(encoded))

	var none domain.CuratedDigest
	require.NoError(t, json.Unmarshal([]byte(`{"daily_analysis":null}`), &none))
	require.True(t, none.Analysis.Empty())

	var bad domain.CuratedDigest
	require.Error(t, json.Unmarshal([]byte(`{"daily_analysis":42}`), &bad))
}

func TestParseCategoryFallsBackToUnclassified(t *testing.T) {
	t.Parallel()

	c, ok := domain.ParseCategory(" AI_Models ")
	require.True(t, ok)
	require.Equal(t, domain.CategoryAIModels, c)

	c, ok = domain.ParseCategory("gossip")
	require.False(t, ok)
	require.Equal(t, domain.CategoryUnclassified, c)
}
