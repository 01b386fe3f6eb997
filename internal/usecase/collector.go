package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
)

// Collector runs every source family in turn and assembles one CollectionBatch.
type Collector struct {
	source ports.FamilySource
	logger *slog.Logger
	clock  func() time.Time
}

// NewCollector wires the family source.
func NewCollector(source ports.FamilySource, logger *slog.Logger, clock func() time.Time) *Collector {
	if clock == nil {
		clock = time.Now
	}
	return &Collector{source: source, logger: orDiscard(logger), clock: clock}
}

// Collect fetches families sequentially; a failing family contributes zero items.
func (c *Collector) Collect(ctx context.Context) (domain.CollectionBatch, error) {
	now := c.clock().UTC()
	breakdown := map[string]int{}
	var items []domain.RawItem

	if c.source == nil {
		return domain.NewCollectionBatch(now, breakdown, nil), nil
	}

	for _, family := range c.source.Families() {
		if err := ctx.Err(); err != nil {
			return domain.CollectionBatch{}, fmt.Errorf("collect: %w", err)
		}

		found, err := c.fetchFamily(ctx, family, now)
		if err != nil {
			c.logger.Warn("family failed", "family", family, "error", err)
			found = nil
		}
		breakdown[family] = len(found)
		items = append(items, found...)
		c.logger.Info("family collected", "family", family, "count", len(found))
	}

	batch := domain.NewCollectionBatch(now, breakdown, items)
	c.logger.Info("collection done", "total_items", batch.TotalItems)
	return batch, nil
}

func (c *Collector) fetchFamily(ctx context.Context, family string, now time.Time) (items []domain.RawItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("family %s panicked: %v", family, r)
		}
	}()
	return c.source.FetchFamily(ctx, family, now)
}
