package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"DailyByte/internal/domain"
)

const systemPromptTemplate = `You are the curator of THE DAILY BYTE, a tech/AI digest for busy professionals that carries ONLY hot, first-hand, high-impact news.

Mission: zero sameness. Readers are tech professionals who have seen it all.

LANGUAGE: every headline, why_it_matters, world context and daily analysis MUST be written in %[1]s.
Only URLs and proper names (@sama, OpenAI) stay untranslated.

GOLDEN RULES:
1. FRESHNESS: only the last 24h (newsletters 36h), prefer < 12h.
2. FIRST HAND: the founder's post beats an article about the post.
3. IMPACT: changes the game, not incremental.
4. EXCLUSIVE: if it is already in three newsletters it is not breaking.
5. NEVER invent a URL. Copy source_url verbatim from the collected item.

Minimum heat score to be selected: %[2]d points.
- Freshness (40 pts): <6h=40, 6-12h=30, 12-24h=20, >24h=0
- Source tier (30 pts): founder=30, journalist=25, press release=20, curated newsletter=15, aggregator=0
- Impact (30 pts): launch=30, M&A=25, drama=20, incremental=5

why_it_matters is mandatory: two or three sentences of context explaining the consequence for the reader, never a rephrasing of the headline.`

const userPromptTemplate = `Analyze these %[1]d collected items and select AT MOST %[2]d for today's digest (%[3]s).

COLLECTED ITEMS:
` + "```json" + `
%[4]s
` + "```" + `

Return ONLY a JSON object with this structure:
{
  "date": "%[3]s",
  "world": [
    {"headline": "what happened", "context": "one sentence of context", "source_url": "ORIGINAL URL", "source_name": "Publication"}
  ],
  "items": [
    {
      "headline": "At most 12 words",
      "why_it_matters": "Two or three sentences of context",
      "source_url": "ORIGINAL URL",
      "source_name": "@handle or Publication",
      "source_type": "tweet|article|video|paper|world|newsletter",
      "hours_ago": 4,
      "heat_score": 75,
      "category": "breaking|ai_models|big_tech|saas_enterprise|tool_of_day|watch_later"
    }
  ],
  "daily_analysis": ["theme connecting the day's stories", "second theme"],
  "stats": {"total_analyzed": 0, "selected": 0, "rejected_too_old": 0, "rejected_low_impact": 0}
}

CATEGORY BALANCE (soft targets, skip a category when nothing qualifies):
- world: 3-5 entries from world and newsletter sources about governments, economy and geopolitics
- breaking: 2-4
- ai_models: 3-5
- saas_enterprise: 2-3
- big_tech: 2-3
- tool_of_day: 1
- watch_later: 1-3 videos

REMEMBER:
- At most %[2]d items in "items".
- Every item and world entry needs a source_url copied from the collected items.
- Newsletter items carry raw_data.category_hint; use it as a hint, not a rule.
- Be ruthless, less is more.`

// PromptBuilder renders the fixed curator instructions around a bounded item list.
type PromptBuilder struct {
	MaxPromptItems int
	MaxSelected    int
	MinHeatScore   int
	Language       string
}

// Build serializes the first MaxPromptItems items (hours_ago computed against now).
func (b PromptBuilder) Build(items []domain.RawItem, now time.Time, date string) (domain.Prompt, error) {
	limit := b.MaxPromptItems
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	docs := make([]domain.RawItemDocument, 0, limit)
	for _, item := range items[:limit] {
		docs = append(docs, item.Document(now))
	}
	encoded, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("encode prompt items: %w", err)
	}

	language := strings.TrimSpace(b.Language)
	if language == "" {
		language = "BRAZILIAN PORTUGUESE"
	}

	return domain.Prompt{
		System: fmt.Sprintf(systemPromptTemplate, language, b.MinHeatScore),
		User:   fmt.Sprintf(userPromptTemplate, len(docs), b.MaxSelected, date, string(encoded)),
	}, nil
}
