package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"DailyByte/internal/domain"
)

// modelReply is the loosely typed shape the model returns. Entries stay raw so one
// malformed item or world line is dropped on its own instead of failing the whole reply.
type modelReply struct {
	Date     json.RawMessage   `json:"date"`
	World    []json.RawMessage `json:"world"`
	Items    []json.RawMessage `json:"items"`
	Analysis json.RawMessage   `json:"daily_analysis"`
	Stats    json.RawMessage   `json:"stats"`
}

type modelItem struct {
	Headline     string     `json:"headline"`
	WhyItMatters string     `json:"why_it_matters"`
	SourceURL    string     `json:"source_url"`
	SourceName   string     `json:"source_name"`
	SourceType   string     `json:"source_type"`
	HoursAgo     flexNumber `json:"hours_ago"`
	HeatScore    flexNumber `json:"heat_score"`
	Category     string     `json:"category"`
}

type modelStats struct {
	TotalAnalyzed     flexNumber `json:"total_analyzed"`
	Selected          flexNumber `json:"selected"`
	RejectedTooOld    flexNumber `json:"rejected_too_old"`
	RejectedLowImpact flexNumber `json:"rejected_low_impact"`
}

// flexNumber accepts JSON numbers, numeric strings ("4", "4h") and null.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*n = flexNumber(f)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "h"))
	if text == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", text)
	}
	*n = flexNumber(f)
	return nil
}

// ValidationReport counts what the validation pass changed.
type ValidationReport struct {
	DroppedItems       int
	DroppedWorld       int
	UnknownCategories  int
	FilledSourceFields int
	ClampedHeatScores  int
	TruncatedOverflow  int
	MalformedFields    int
}

// Changed reports whether the model output needed any correction.
func (r ValidationReport) Changed() bool {
	return r != ValidationReport{}
}

// validateReply turns a parsed reply into a CuratedDigest in which every url traces back to the batch.
func validateReply(reply modelReply, index map[string]domain.RawItem, now time.Time, maxItems int) (domain.CuratedDigest, ValidationReport) {
	var report ValidationReport

	world := make([]domain.WorldEntry, 0, len(reply.World))
	for _, encoded := range reply.World {
		var entry domain.WorldEntry
		if err := json.Unmarshal(encoded, &entry); err != nil {
			report.DroppedWorld++
			continue
		}
		entry.Headline = strings.TrimSpace(entry.Headline)
		entry.SourceURL = strings.TrimSpace(entry.SourceURL)
		source, ok := index[entry.SourceURL]
		if entry.Headline == "" || !ok {
			report.DroppedWorld++
			continue
		}
		if strings.TrimSpace(entry.SourceName) == "" {
			entry.SourceName = source.SourceName
			report.FilledSourceFields++
		}
		world = append(world, entry)
	}

	items := make([]domain.CuratedItem, 0, len(reply.Items))
	for _, encoded := range reply.Items {
		var raw modelItem
		if err := json.Unmarshal(encoded, &raw); err != nil {
			report.DroppedItems++
			continue
		}
		url := strings.TrimSpace(raw.SourceURL)
		source, ok := index[url]
		if !ok || strings.TrimSpace(raw.Headline) == "" || strings.TrimSpace(raw.WhyItMatters) == "" {
			report.DroppedItems++
			continue
		}

		category, known := domain.ParseCategory(raw.Category)
		if !known {
			report.UnknownCategories++
		}

		sourceType, known := domain.ParseSourceType(raw.SourceType)
		if !known {
			sourceType = source.SourceType
			report.FilledSourceFields++
		}

		sourceName := strings.TrimSpace(raw.SourceName)
		if sourceName == "" {
			sourceName = source.SourceName
			report.FilledSourceFields++
		}

		hoursAgo := float64(raw.HoursAgo)
		if hoursAgo <= 0 {
			hoursAgo = domain.RoundHours(source.HoursAgo(now))
		}

		heat := int(math.Round(float64(raw.HeatScore)))
		if heat < 0 || heat > 100 {
			heat = clamp(heat, 0, 100)
			report.ClampedHeatScores++
		}

		items = append(items, domain.CuratedItem{
			Headline:     strings.TrimSpace(raw.Headline),
			WhyItMatters: strings.TrimSpace(raw.WhyItMatters),
			SourceURL:    url,
			SourceName:   sourceName,
			SourceType:   sourceType,
			HoursAgo:     hoursAgo,
			HeatScore:    heat,
			Category:     category,
		})
	}

	if maxItems > 0 && len(items) > maxItems {
		report.TruncatedOverflow = len(items) - maxItems
		items = items[:maxItems]
	}

	var date string
	if len(reply.Date) > 0 && json.Unmarshal(reply.Date, &date) != nil {
		report.MalformedFields++
	}

	var analysis domain.Analysis
	if len(reply.Analysis) > 0 && json.Unmarshal(reply.Analysis, &analysis) != nil {
		analysis = domain.Analysis{}
		report.MalformedFields++
	}

	var stats modelStats
	if len(reply.Stats) > 0 && json.Unmarshal(reply.Stats, &stats) != nil {
		stats = modelStats{}
		report.MalformedFields++
	}

	digest := domain.CuratedDigest{
		Date:     strings.TrimSpace(date),
		World:    world,
		Items:    items,
		Analysis: analysis,
		Stats: domain.Stats{
			TotalAnalyzed:     int(stats.TotalAnalyzed),
			Selected:          len(items),
			RejectedTooOld:    int(stats.RejectedTooOld),
			RejectedLowImpact: int(stats.RejectedLowImpact),
		},
	}
	return digest, report
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
