package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the closed set of digest sections.
type Category string

const (
	CategoryBreaking       Category = "breaking"
	CategoryAIModels       Category = "ai_models"
	CategoryBigTech        Category = "big_tech"
	CategorySaaSEnterprise Category = "saas_enterprise"
	CategoryToolOfDay      Category = "tool_of_day"
	CategoryWatchLater     Category = "watch_later"
	CategoryUnclassified   Category = "unclassified"
)

var categories = map[Category]struct{}{
	CategoryBreaking:       {},
	CategoryAIModels:       {},
	CategoryBigTech:        {},
	CategorySaaSEnterprise: {},
	CategoryToolOfDay:      {},
	CategoryWatchLater:     {},
	CategoryUnclassified:   {},
}

// ParseCategory maps a raw model value onto the closed set; unknown values become unclassified.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := categories[c]; ok {
		return c, true
	}
	return CategoryUnclassified, false
}

// WorldEntry is one line of the "real world" section.
type WorldEntry struct {
	Headline   string `json:"headline"`
	Context    string `json:"context"`
	SourceURL  string `json:"source_url"`
	SourceName string `json:"source_name"`
}

// CuratedItem is one model-selected story.
type CuratedItem struct {
	Headline     string     `json:"headline"`
	WhyItMatters string     `json:"why_it_matters"`
	SourceURL    string     `json:"source_url"`
	SourceName   string     `json:"source_name"`
	SourceType   SourceType `json:"source_type"`
	HoursAgo     float64    `json:"hours_ago"`
	HeatScore    int        `json:"heat_score"`
	Category     Category   `json:"category"`
}

// Analysis holds the daily analysis, either a text block or bullet themes.
type Analysis struct {
	Text    string
	Bullets []string
}

// Empty reports whether there is nothing to render.
func (a Analysis) Empty() bool {
	return strings.TrimSpace(a.Text) == "" && len(a.Bullets) == 0
}

// MarshalJSON keeps the shape the model produced.
func (a Analysis) MarshalJSON() ([]byte, error) {
	if len(a.Bullets) > 0 {
		return json.Marshal(a.Bullets)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts a string, an array of strings or null.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Analysis{}
		return nil
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = Analysis{Text: text}
		return nil
	case '[':
		var bullets []string
		if err := json.Unmarshal(data, &bullets); err != nil {
			return err
		}
		*a = Analysis{Bullets: bullets}
		return nil
	default:
		return fmt.Errorf("daily_analysis must be a string or an array of strings")
	}
}

// Stats is the curation bookkeeping reported by the model.
type Stats struct {
	TotalAnalyzed     int `json:"total_analyzed"`
	Selected          int `json:"selected"`
	RejectedTooOld    int `json:"rejected_too_old"`
	RejectedLowImpact int `json:"rejected_low_impact"`
}

// CuratedDigest is the Curator output consumed once by the Renderer.
type CuratedDigest struct {
	Date        string        `json:"date"`
	World       []WorldEntry  `json:"world,omitempty"`
	Items       []CuratedItem `json:"items"`
	Analysis    Analysis      `json:"daily_analysis"`
	Stats       Stats         `json:"stats"`
	ProcessedAt string        `json:"processed_at,omitempty"`
	RawTotal    int           `json:"raw_total,omitempty"`

	// Error and RawResponse are set only on the degraded sentinel.
	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// DegradedDigest builds the sentinel returned when the model reply cannot be parsed.
func DegradedDigest(err error, raw string) CuratedDigest {
	return CuratedDigest{Error: err.Error(), RawResponse: raw}
}

// Degraded reports whether the digest is the parse-failure sentinel.
func (d CuratedDigest) Degraded() bool {
	return d.Error != ""
}

// EncodeDigest renders the digest as indented JSON.
func EncodeDigest(d CuratedDigest) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// DecodeDigest parses a digest document such as a persisted curation or an operator override.
func DecodeDigest(data []byte) (CuratedDigest, error) {
	var d CuratedDigest
	if err := json.Unmarshal(data, &d); err != nil {
		return CuratedDigest{}, fmt.Errorf("decode digest: %w", err)
	}
	return d, nil
}
