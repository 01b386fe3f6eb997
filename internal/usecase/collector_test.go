package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
)

func TestCollectorBreakdownSumsAndOrder(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		order: []string{"rss", "newsletter", "x", "youtube"},
		items: map[string][]domain.RawItem{
			"rss": {
				rawItem("https://rss/1", domain.SourceArticle, 5*time.Hour),
				rawItem("https://rss/2", domain.SourceArticle, time.Hour),
			},
			"newsletter": {rawItem("https://nl/1", domain.SourceNewsletter, 30*time.Hour)},
			"youtube":    {rawItem("https://yt/1", domain.SourceVideo, 2*time.Hour)},
		},
		errs:   map[string]error{"x": errors.New("401 unauthorized")},
		panics: map[string]bool{},
	}

	batch, err := NewCollector(source, nil, fixedClock).Collect(context.Background())
	require.NoError(t, err)

	require.Equal(t, 4, batch.TotalItems)
	require.Equal(t, map[string]int{"rss": 2, "newsletter": 1, "x": 0, "youtube": 1}, batch.Breakdown)

	sum := 0
	for _, n := range batch.Breakdown {
		sum += n
	}
	require.Equal(t, batch.TotalItems, sum)

	for i := 1; i < len(batch.Items); i++ {
		require.False(t, batch.Items[i].PublishedAt.After(batch.Items[i-1].PublishedAt))
	}
	require.Equal(t, "https://rss/2", batch.Items[0].URL)
}

func TestCollectorSurvivesPanickingFamily(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		order: []string{"world", "rss"},
		items: map[string][]domain.RawItem{
			"rss": {rawItem("https://rss/1", domain.SourceArticle, time.Hour)},
		},
		panics: map[string]bool{"world": true},
	}

	batch, err := NewCollector(source, nil, fixedClock).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, batch.TotalItems)
	require.Equal(t, 0, batch.Breakdown["world"])
}

func TestCollectorStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(&fakeSource{order: []string{"rss"}}, nil, fixedClock).Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
