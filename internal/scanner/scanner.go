package scanner

import (
	"context"
	"fmt"
	"time"

	"DailyByte/internal/domain"
)

// Source describes one configured endpoint (feed url, newsletter archive, X handle).
type Source struct {
	Name         string
	URL          string
	SourceType   domain.SourceType
	CategoryHint string
	Language     string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	Family     string
	SourceType domain.SourceType
	Now        time.Time
	Cutoff     time.Time
	MaxItems   int
	Sources    []Source
}

// TypeFor resolves the source type for src, falling back to the family default.
func (r Request) TypeFor(src Source) domain.SourceType {
	if src.SourceType != "" {
		return src.SourceType
	}
	return r.SourceType
}

// Scanner captures a single strategy implementation (feed, newsletter, social).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.RawItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
