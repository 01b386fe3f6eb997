// Package render turns a curated digest into the Markdown email body and subject.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"DailyByte/internal/domain"
)

const (
	sectionWorld        = "world"
	sectionBreaking     = string(domain.CategoryBreaking)
	sectionAIModels     = string(domain.CategoryAIModels)
	sectionSaaS         = string(domain.CategorySaaSEnterprise)
	sectionBigTech      = string(domain.CategoryBigTech)
	sectionToolOfDay    = string(domain.CategoryToolOfDay)
	sectionUnclassified = string(domain.CategoryUnclassified)
	sectionAnalysis     = "analysis"
	sectionWatchLater   = string(domain.CategoryWatchLater)
)

// Item sections between world and analysis, in email order.
var itemSections = []domain.Category{
	domain.CategoryBreaking,
	domain.CategoryAIModels,
	domain.CategorySaaSEnterprise,
	domain.CategoryBigTech,
	domain.CategoryToolOfDay,
	domain.CategoryUnclassified,
}

const sectionSeparator = "\n\n---\n\n"

var (
	headingMarker = regexp.MustCompile(`^#{1,6}\s*`)
	bulletMarker  = regexp.MustCompile(`^[•\-\*]\s*`)
)

// Renderer is a pure function of the digest and the render time.
type Renderer struct {
	locale   locale
	location *time.Location
}

// New builds a renderer for the closest supported locale. Dates are shown in loc.
func New(localeName string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{locale: matchLocale(localeName), location: loc}
}

// Locale returns the BCP 47 tag actually used.
func (r *Renderer) Locale() string {
	return r.locale.tag.String()
}

// PromptLanguage names the language the curator should write in.
func (r *Renderer) PromptLanguage() string {
	return r.locale.promptLanguage
}

// Render builds the subject and body. Empty sections are omitted.
func (r *Renderer) Render(digest domain.CuratedDigest, now time.Time) domain.RenderedDigest {
	var sections []string

	if world := r.world(digest.World); world != "" {
		sections = append(sections, world)
	}

	byCategory := make(map[domain.Category][]domain.CuratedItem)
	for _, item := range digest.Items {
		// Override and reloaded digests are not validated.
		category, _ := domain.ParseCategory(string(item.Category))
		byCategory[category] = append(byCategory[category], item)
	}

	for _, category := range itemSections {
		items := byCategory[category]
		if len(items) == 0 {
			continue
		}
		blocks := make([]string, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, r.item(item))
		}
		sections = append(sections, r.locale.headings[string(category)]+"\n\n"+strings.Join(blocks, "\n"))
	}

	if analysis := analysisText(digest.Analysis); analysis != "" {
		sections = append(sections, r.locale.headings[sectionAnalysis]+"\n\n"+analysis)
	}

	if videos := byCategory[domain.CategoryWatchLater]; len(videos) > 0 {
		blocks := make([]string, 0, len(videos))
		for _, item := range videos {
			blocks = append(blocks, r.video(item))
		}
		sections = append(sections, r.locale.headings[sectionWatchLater]+"\n\n"+strings.Join(blocks, "\n"))
	}

	return domain.RenderedDigest{
		Subject: r.locale.subject(now.In(r.location)),
		Body:    strings.Join(sections, sectionSeparator) + r.locale.footer,
	}
}

func (r *Renderer) world(entries []domain.WorldEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("→ **%s** — %s ([%s](%s))", e.Headline, e.Context, e.SourceName, e.SourceURL))
	}
	return r.locale.headings[sectionWorld] + "\n\n" + strings.Join(lines, "\n\n")
}

func (r *Renderer) item(item domain.CuratedItem) string {
	hours := fmt.Sprintf(r.locale.hoursAgo, strconv.FormatFloat(item.HoursAgo, 'f', -1, 64))
	return fmt.Sprintf("**%s** %s\n\n%s\n\n🔗 [%s](%s) | 📍 %s | ⏰ %s\n\n",
		item.Headline, heatTier(item.HeatScore),
		item.WhyItMatters,
		r.locale.readOriginal, item.SourceURL, item.SourceName, hours,
	)
}

func (r *Renderer) video(item domain.CuratedItem) string {
	return fmt.Sprintf("🎬 **%s**\n*%s*\n▶️ [%s](%s)\n\n", item.Headline, item.SourceName, r.locale.watch, item.SourceURL)
}

func heatTier(score int) string {
	switch {
	case score >= 80:
		return "🔥🔥🔥"
	case score >= 70:
		return "🔥🔥"
	default:
		return "🔥"
	}
}

func analysisText(a domain.Analysis) string {
	if len(a.Bullets) == 0 {
		return strings.TrimSpace(a.Text)
	}
	bullets := make([]string, 0, len(a.Bullets))
	for _, b := range a.Bullets {
		b = headingMarker.ReplaceAllString(strings.TrimSpace(b), "")
		b = bulletMarker.ReplaceAllString(strings.TrimSpace(b), "")
		if b == "" {
			continue
		}
		bullets = append(bullets, "• "+b)
	}
	return strings.Join(bullets, "\n\n")
}
