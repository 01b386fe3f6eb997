package ports

import (
	"context"
	"errors"
	"time"

	"DailyByte/internal/domain"
)

// ErrRateLimited is returned by model clients when the provider asks us to back off.
var ErrRateLimited = errors.New("model provider rate limited the request")

// ErrStateNotFound is returned by state stores for keys that were never written (or expired).
var ErrStateNotFound = errors.New("state not found")

// FamilySource pulls raw items for one configured source family (rss, world, youtube, ...).
type FamilySource interface {
	Families() []string
	FetchFamily(ctx context.Context, family string, now time.Time) ([]domain.RawItem, error)
}

// ModelClient sends a system/user prompt pair to an LLM and returns the raw reply text.
type ModelClient interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
}

// DeliveryProvider hands a rendered email to the outbound provider and returns its delivery id.
type DeliveryProvider interface {
	Deliver(ctx context.Context, subject, body string) (string, error)
}

// StateStore keeps the intermediate documents of a single run (raw batch, curated digest, ...).
type StateStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
