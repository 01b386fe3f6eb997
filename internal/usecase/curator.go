package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
	"DailyByte/pkg/jsonx"
	"DailyByte/pkg/retry"
)

// State keys shared by the pipeline stages.
const (
	StateRaw         = "raw"
	StateCurated     = "curated"
	StateLLMExchange = "llm_exchange"
)

const truncationMarker = "..."

// CuratorConfig tunes the curation contract.
type CuratorConfig struct {
	MaxPromptItems      int
	ContentLimit        int
	MaxItems            int
	MinHeatScore        int
	MaxAttempts         int
	BaseBackoff         time.Duration
	Freshness           time.Duration
	NewsletterFreshness time.Duration
	OverridePath        string
	Language            string
	Location            *time.Location
}

// CuratorDeps wires the curator collaborators.
type CuratorDeps struct {
	Model  ports.ModelClient
	State  ports.StateStore
	Logger *slog.Logger
	Clock  func() time.Time
	Sleep  retry.Sleeper
}

// Curator asks the model to select and rewrite the day's stories.
type Curator struct {
	cfg    CuratorConfig
	model  ports.ModelClient
	state  ports.StateStore
	logger *slog.Logger
	clock  func() time.Time
	sleep  retry.Sleeper
}

// NewCurator applies defaults to zero config values.
func NewCurator(cfg CuratorConfig, deps CuratorDeps) *Curator {
	if cfg.MaxPromptItems <= 0 {
		cfg.MaxPromptItems = 100
	}
	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = 500
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 20
	}
	if cfg.MinHeatScore <= 0 {
		cfg.MinHeatScore = 60
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 24 * time.Hour
	}
	if cfg.NewsletterFreshness <= 0 {
		cfg.NewsletterFreshness = 36 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.ContextSleep
	}
	return &Curator{
		cfg:    cfg,
		model:  deps.Model,
		state:  deps.State,
		logger: orDiscard(deps.Logger),
		clock:  deps.Clock,
		sleep:  deps.Sleep,
	}
}

// HasOverride reports whether an operator override digest is present.
func (c *Curator) HasOverride() bool {
	if c.cfg.OverridePath == "" {
		return false
	}
	info, err := os.Stat(c.cfg.OverridePath)
	return err == nil && !info.IsDir()
}

// Curate produces the digest for batch. A reply that cannot be parsed yields the degraded
// sentinel without an error; exhausted rate-limit retries and other model errors are fatal.
func (c *Curator) Curate(ctx context.Context, batch domain.CollectionBatch) (domain.CuratedDigest, error) {
	if c.HasOverride() {
		return c.loadOverride()
	}
	if c.model == nil {
		return domain.CuratedDigest{}, fmt.Errorf("curate: model client is not configured")
	}

	now := c.clock().UTC()
	items := c.prefilter(batch.Items, now)
	items = truncateContent(items, c.cfg.ContentLimit)
	c.logger.Info("prefiltered batch", "raw_total", batch.TotalItems, "fresh", len(items))

	builder := PromptBuilder{
		MaxPromptItems: c.cfg.MaxPromptItems,
		MaxSelected:    c.cfg.MaxItems,
		MinHeatScore:   c.cfg.MinHeatScore,
		Language:       c.cfg.Language,
	}
	prompt, err := builder.Build(items, now, now.In(c.cfg.Location).Format("2006-01-02"))
	if err != nil {
		return domain.CuratedDigest{}, fmt.Errorf("build prompt: %w", err)
	}

	attempts := 0
	reply, err := retry.Do(ctx, retry.Policy{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     retry.Linear(c.cfg.BaseBackoff),
		Retryable:   func(err error) bool { return errors.Is(err, ports.ErrRateLimited) },
		Sleep:       c.sleep,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			c.logger.Warn("model rate limited, backing off", "attempt", attempt, "wait", wait, "error", err)
		},
	}, func(ctx context.Context, attempt int) (string, error) {
		attempts = attempt
		return c.model.Complete(ctx, prompt)
	})
	c.saveExchange(ctx, prompt, reply, attempts, err)
	if err != nil {
		return domain.CuratedDigest{}, fmt.Errorf("call model: %w", err)
	}

	digest := c.parse(reply, batch, now)
	if !digest.Degraded() {
		digest.ProcessedAt = domain.FormatTimestamp(now)
		digest.RawTotal = batch.TotalItems
	}
	return digest, nil
}

func (c *Curator) parse(reply string, batch domain.CollectionBatch, now time.Time) domain.CuratedDigest {
	var parsed modelReply
	if err := jsonx.Decode(reply, &parsed); err != nil {
		c.logger.Error("model reply is not valid JSON", "error", err, "reply_len", len(reply))
		return domain.DegradedDigest(err, reply)
	}

	digest, report := validateReply(parsed, batch.URLIndex(), now, c.cfg.MaxItems)
	if report.Changed() {
		c.logger.Warn("model reply corrected",
			"dropped_items", report.DroppedItems,
			"dropped_world", report.DroppedWorld,
			"unknown_categories", report.UnknownCategories,
			"filled_source_fields", report.FilledSourceFields,
			"clamped_heat", report.ClampedHeatScores,
			"overflow", report.TruncatedOverflow,
			"malformed_fields", report.MalformedFields,
		)
	}
	if digest.Date == "" {
		digest.Date = now.In(c.cfg.Location).Format("2006-01-02")
	}
	return digest
}

// prefilter re-validates freshness at curation time, keeping batch order.
func (c *Curator) prefilter(items []domain.RawItem, now time.Time) []domain.RawItem {
	kept := make([]domain.RawItem, 0, len(items))
	for _, item := range items {
		ceiling := c.cfg.Freshness
		if item.SourceType == domain.SourceNewsletter {
			ceiling = c.cfg.NewsletterFreshness
		}
		if item.HoursAgo(now) > ceiling.Hours() {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// truncateContent returns copies of items whose content exceeds limit runes cut to limit plus a marker.
func truncateContent(items []domain.RawItem, limit int) []domain.RawItem {
	out := make([]domain.RawItem, len(items))
	for i, item := range items {
		runes := []rune(item.Content)
		if limit > 0 && len(runes) > limit {
			item.Content = string(runes[:limit]) + truncationMarker
			item.Truncated = true
		}
		out[i] = item
	}
	return out
}

func (c *Curator) loadOverride() (domain.CuratedDigest, error) {
	raw, err := os.ReadFile(c.cfg.OverridePath)
	if err != nil {
		return domain.CuratedDigest{}, fmt.Errorf("read override: %w", err)
	}
	digest, err := domain.DecodeDigest(raw)
	if err != nil {
		return domain.CuratedDigest{}, fmt.Errorf("override %s: %w", c.cfg.OverridePath, err)
	}
	c.logger.Info("using override digest", "path", c.cfg.OverridePath, "items", len(digest.Items))
	return digest, nil
}

type llmExchange struct {
	Timestamp string `json:"timestamp"`
	Attempts  int    `json:"attempts"`
	System    string `json:"system"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (c *Curator) saveExchange(ctx context.Context, prompt domain.Prompt, reply string, attempts int, callErr error) {
	if c.state == nil {
		return
	}
	exchange := llmExchange{
		Timestamp: domain.FormatTimestamp(c.clock()),
		Attempts:  attempts,
		System:    prompt.System,
		Prompt:    prompt.User,
		Response:  reply,
	}
	if callErr != nil {
		exchange.Error = callErr.Error()
	}
	raw, err := json.MarshalIndent(exchange, "", "  ")
	if err == nil {
		err = c.state.Put(ctx, StateLLMExchange, raw)
	}
	if err != nil {
		c.logger.Warn("cannot persist llm exchange", "error", err)
	}
}
