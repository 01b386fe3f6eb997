package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DailyByte/internal/config"
	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
	"DailyByte/internal/scanner"
)

// StrategySource implements FamilySource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	families []config.FamilyConfig
	logger   *slog.Logger
}

var _ ports.FamilySource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined families.
func NewStrategySource(reg *scanner.Registry, families []config.FamilyConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		families: families,
		logger:   log,
	}
}

// Families lists the configured family names in collection order.
func (s *StrategySource) Families() []string {
	names := make([]string, 0, len(s.families))
	for _, fam := range s.families {
		names = append(names, fam.Name)
	}
	return names
}

// FetchFamily resolves the family's scanner and runs it with the family cutoff.
func (s *StrategySource) FetchFamily(ctx context.Context, family string, now time.Time) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	fam, ok := s.lookup(family)
	if !ok {
		return nil, fmt.Errorf("family %s is not configured", family)
	}

	strategy, err := s.registry.Resolve(fam.Scanner)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", fam.Name, err)
	}

	sourceType, ok := domain.ParseSourceType(fam.SourceType)
	if !ok {
		return nil, fmt.Errorf("family %s: unknown source type %q", fam.Name, fam.SourceType)
	}

	sources, err := toScannerSources(fam.Sources)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", fam.Name, err)
	}

	req := scanner.Request{
		Family:     fam.Name,
		SourceType: sourceType,
		Now:        now.UTC(),
		Cutoff:     now.UTC().Add(-fam.Cutoff),
		MaxItems:   fam.MaxItems,
		Sources:    sources,
	}
	s.debug("process family", "family", fam.Name, "scanner", fam.Scanner, "sources", len(sources), "cutoff", req.Cutoff)

	results, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan family %s: %w", fam.Name, err)
	}

	kept := results[:0]
	for _, item := range results {
		if item.URL == "" {
			continue
		}
		if item.SourceName == "" {
			item.SourceName = fam.Name
		}
		kept = append(kept, item)
	}
	s.debug("family produced items", "family", fam.Name, "count", len(kept))
	return kept, nil
}

func (s *StrategySource) lookup(name string) (config.FamilyConfig, bool) {
	for _, fam := range s.families {
		if fam.Name == name {
			return fam, true
		}
	}
	return config.FamilyConfig{}, false
}

func toScannerSources(cfg []config.SourceConfig) ([]scanner.Source, error) {
	sources := make([]scanner.Source, 0, len(cfg))
	for _, src := range cfg {
		var st domain.SourceType
		if src.SourceType != "" {
			parsed, ok := domain.ParseSourceType(src.SourceType)
			if !ok {
				return nil, fmt.Errorf("source %s: unknown source type %q", src.Name, src.SourceType)
			}
			st = parsed
		}
		sources = append(sources, scanner.Source{
			Name:         src.Name,
			URL:          src.URL,
			SourceType:   st,
			CategoryHint: src.CategoryHint,
			Language:     src.Language,
		})
	}
	return sources, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
