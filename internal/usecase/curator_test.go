package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
	"DailyByte/pkg/retry"
)

func newTestCurator(t *testing.T, model *fakeModel, sleeps *recordedSleeps) (*Curator, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	cfg := CuratorConfig{OverridePath: filepath.Join(t.TempDir(), "digest_override.json")}
	deps := CuratorDeps{Model: model, State: store, Clock: fixedClock}
	if sleeps != nil {
		deps.Sleep = sleeps.sleep
	}
	return NewCurator(cfg, deps), store
}

func batchOf(items ...domain.RawItem) domain.CollectionBatch {
	return domain.NewCollectionBatch(testNow, map[string]int{"rss": len(items)}, items)
}

func TestCuratorPrefiltersStaleItems(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{"```json\n" + `{
  "date": "2025-03-03",
  "items": [{
    "headline": "A ships",
    "why_it_matters": "Because.",
    "source_url": "https://a",
    "source_name": "A",
    "source_type": "article",
    "hours_ago": 3,
    "heat_score": 82,
    "category": "breaking"
  }],
  "daily_analysis": "one theme",
  "stats": {"total_analyzed": 1, "selected": 1}
}` + "\n```"}}
	curator, _ := newTestCurator(t, model, nil)

	batch := batchOf(
		rawItem("https://a", domain.SourceArticle, 3*time.Hour),
		rawItem("https://b", domain.SourceArticle, 40*time.Hour),
		rawItem("https://nl", domain.SourceNewsletter, 30*time.Hour),
	)

	digest, err := curator.Curate(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)

	user := model.prompts[0].User
	require.Contains(t, user, `"url": "https://a"`)
	require.Contains(t, user, `"url": "https://nl"`)
	require.NotContains(t, user, `"url": "https://b"`)
	require.Contains(t, user, "Analyze these 2 collected items")

	require.Len(t, digest.Items, 1)
	require.Equal(t, "https://a", digest.Items[0].SourceURL)
	require.Equal(t, 3, digest.RawTotal)
	require.Equal(t, domain.FormatTimestamp(testNow), digest.ProcessedAt)
	require.Equal(t, "one theme", digest.Analysis.Text)
}

func TestCuratorFencedEmptyReply(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{"```json\n{\"items\":[]}\n```"}}
	curator, _ := newTestCurator(t, model, nil)

	digest, err := curator.Curate(context.Background(), batchOf(rawItem("https://a", domain.SourceArticle, time.Hour)))
	require.NoError(t, err)
	require.False(t, digest.Degraded())
	require.Empty(t, digest.Items)
	require.Equal(t, 0, digest.Stats.Selected)
	require.Equal(t, "2025-03-03", digest.Date)
}

func TestCuratorRetriesExhausted(t *testing.T) {
	t.Parallel()

	limited := errors.Join(ports.ErrRateLimited, errors.New("429"))
	model := &fakeModel{errs: []error{limited, limited, limited}}
	sleeps := &recordedSleeps{}
	curator, store := newTestCurator(t, model, sleeps)

	_, err := curator.Curate(context.Background(), batchOf(rawItem("https://a", domain.SourceArticle, time.Hour)))
	require.Error(t, err)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.ErrorIs(t, err, ports.ErrRateLimited)
	require.Len(t, model.prompts, 3)
	require.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, sleeps.waits)

	exchange, getErr := store.Get(context.Background(), StateLLMExchange)
	require.NoError(t, getErr)
	require.Contains(t, string(exchange), `"attempts": 3`)
}

func TestCuratorRecoversAfterRateLimit(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		errs:    []error{ports.ErrRateLimited},
		replies: []string{"", `{"items":[]}`},
	}
	sleeps := &recordedSleeps{}
	curator, _ := newTestCurator(t, model, sleeps)

	digest, err := curator.Curate(context.Background(), batchOf(rawItem("https://a", domain.SourceArticle, time.Hour)))
	require.NoError(t, err)
	require.False(t, digest.Degraded())
	require.Len(t, model.prompts, 2)
	require.Equal(t, []time.Duration{30 * time.Second}, sleeps.waits)
}

func TestCuratorOtherErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	model := &fakeModel{errs: []error{errors.New("invalid api key")}}
	sleeps := &recordedSleeps{}
	curator, _ := newTestCurator(t, model, sleeps)

	_, err := curator.Curate(context.Background(), batchOf(rawItem("https://a", domain.SourceArticle, time.Hour)))
	require.ErrorContains(t, err, "invalid api key")
	require.Len(t, model.prompts, 1)
	require.Empty(t, sleeps.waits)
}

func TestCuratorDegradesOnGarbage(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{"I could not find anything interesting today."}}
	curator, _ := newTestCurator(t, model, nil)

	digest, err := curator.Curate(context.Background(), batchOf(rawItem("https://a", domain.SourceArticle, time.Hour)))
	require.NoError(t, err)
	require.True(t, digest.Degraded())
	require.Equal(t, "I could not find anything interesting today.", digest.RawResponse)
}

func TestCuratorKeepsOnlyTraceableURLs(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`Here you go: {
  "world": [
    {"headline": "Election", "context": "ctx", "source_url": "https://w"},
    {"headline": "Invented", "context": "ctx", "source_url": "https://nowhere"}
  ],
  "items": [
    {"headline": "Real", "why_it_matters": "x", "source_url": "https://a", "heat_score": 140, "category": "robotics"},
    {"headline": "Fake", "why_it_matters": "x", "source_url": "https://made-up", "heat_score": 90, "category": "breaking"},
    {"headline": "No why", "why_it_matters": "", "source_url": "https://a", "heat_score": 90, "category": "breaking"}
  ]
}`}}
	curator, _ := newTestCurator(t, model, nil)

	batch := batchOf(
		rawItem("https://a", domain.SourceTweet, 2*time.Hour),
		rawItem("https://w", domain.SourceWorld, 5*time.Hour),
	)
	digest, err := curator.Curate(context.Background(), batch)
	require.NoError(t, err)

	urls := batch.URLIndex()
	for _, item := range digest.Items {
		_, ok := urls[item.SourceURL]
		require.True(t, ok, item.SourceURL)
	}
	for _, entry := range digest.World {
		_, ok := urls[entry.SourceURL]
		require.True(t, ok, entry.SourceURL)
	}

	require.Len(t, digest.Items, 1)
	item := digest.Items[0]
	require.Equal(t, domain.CategoryUnclassified, item.Category)
	require.Equal(t, 100, item.HeatScore)
	require.Equal(t, domain.SourceTweet, item.SourceType)
	require.Equal(t, "source https://a", item.SourceName)
	require.Equal(t, 2.0, item.HoursAgo)
	require.Equal(t, 1, digest.Stats.Selected)

	require.Len(t, digest.World, 1)
	require.Equal(t, "source https://w", digest.World[0].SourceName)
}

func TestCuratorTruncatesLongContent(t *testing.T) {
	t.Parallel()

	model := &fakeModel{replies: []string{`{"items":[]}`}}
	curator, _ := newTestCurator(t, model, nil)

	long := rawItem("https://a", domain.SourceArticle, time.Hour)
	long.Content = strings.Repeat("é", 600)

	_, err := curator.Curate(context.Background(), batchOf(long))
	require.NoError(t, err)

	user := model.prompts[0].User
	require.Contains(t, user, strings.Repeat("é", 500)+"...")
	require.NotContains(t, user, strings.Repeat("é", 501))
	require.Contains(t, user, `"truncated": true`)
}

func TestCuratorUsesOverride(t *testing.T) {
	t.Parallel()

	model := &fakeModel{}
	curator, _ := newTestCurator(t, model, nil)
	override := `{"date":"2025-03-03","items":[{"headline":"Manual","why_it_matters":"ops","source_url":"https://manual","category":"breaking","heat_score":99}]}`
	require.NoError(t, os.WriteFile(curator.cfg.OverridePath, []byte(override), 0o644))

	require.True(t, curator.HasOverride())
	digest, err := curator.Curate(context.Background(), batchOf())
	require.NoError(t, err)
	require.Empty(t, model.prompts)
	require.Len(t, digest.Items, 1)
	require.Equal(t, "https://manual", digest.Items[0].SourceURL)
}
