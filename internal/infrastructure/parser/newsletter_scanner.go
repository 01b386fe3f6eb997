package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"DailyByte/internal/domain"
	"DailyByte/internal/scanner"
)

const (
	postPathSelector    = `a[href*="/p/"]`
	descriptionLimit    = 500
	minLinkTitleRunes   = 5
	newsletterAcceptHdr = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

var containerClassExpr = regexp.MustCompile(`(?i)post|article|card`)

// NewsletterScanner scrapes beehiiv-style newsletter archives.
type NewsletterScanner struct {
	fetcher
}

var _ scanner.Scanner = (*NewsletterScanner)(nil)

// NewNewsletterScanner wires an HTTP fetcher.
func NewNewsletterScanner(opts Options) *NewsletterScanner {
	return &NewsletterScanner{fetcher: newFetcher(opts)}
}

// Name identifies the strategy inside the registry.
func (n *NewsletterScanner) Name() string {
	return "newsletter"
}

type post struct {
	title       string
	description string
	url         string
	publishedAt *time.Time
}

// Scan walks each newsletter archive and enriches its newest posts from their own pages.
func (n *NewsletterScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no sources provided for family %s", req.Family)
	}

	now := req.Now
	if now.IsZero() {
		now = n.clock()
	}

	var items []domain.RawItem
	for _, src := range req.Sources {
		found, err := n.scanArchive(ctx, req, src, now)
		if err != nil {
			n.logger.Warn("newsletter failed", "source", src.Name, "error", err)
			continue
		}
		n.logger.Debug("newsletter scanned", "source", src.Name, "count", len(found))
		items = append(items, found...)
	}
	return items, nil
}

func (n *NewsletterScanner) scanArchive(ctx context.Context, req scanner.Request, src scanner.Source, now time.Time) ([]domain.RawItem, error) {
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid archive url %s: %w", src.URL, err)
	}

	doc, err := n.fetchDocument(ctx, src.URL, browserHeaders())
	if err != nil {
		return nil, err
	}

	posts := extractPosts(doc, base)
	if req.MaxItems > 0 && len(posts) > req.MaxItems {
		posts = posts[:req.MaxItems]
	}

	items := make([]domain.RawItem, 0, len(posts))
	for _, p := range posts {
		p = n.enrich(ctx, p)
		publishedAt := now.UTC()
		if p.publishedAt != nil {
			if p.publishedAt.Before(req.Cutoff) {
				continue
			}
			publishedAt = p.publishedAt.UTC()
		}

		content := p.description
		if content == "" {
			content = p.title
		}
		items = append(items, domain.RawItem{
			Title:       p.title,
			Content:     content,
			URL:         p.url,
			SourceName:  src.Name,
			SourceType:  req.TypeFor(src),
			Author:      src.Name,
			PublishedAt: publishedAt,
			Engagement:  map[string]float64{},
			RawData: map[string]any{
				"source_key":    sourceKey(src.Name),
				"language":      src.Language,
				"category_hint": src.CategoryHint,
			},
		})
	}
	return items, nil
}

// extractPosts applies the layered strategies; the first one that yields posts wins.
func extractPosts(doc *goquery.Document, base *url.URL) []post {
	strategies := []func(*goquery.Document, *url.URL) []post{
		structuredCards,
		postLinks,
		postContainers,
		linkTitlesOnly,
	}
	for _, strategy := range strategies {
		if posts := strategy(doc, base); len(posts) > 0 {
			return posts
		}
	}
	return nil
}

func structuredCards(doc *goquery.Document, base *url.URL) []post {
	return collectBlocks(doc.Find("article"), base)
}

func postContainers(doc *goquery.Document, base *url.URL) []post {
	containers := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return containerClassExpr.MatchString(class)
	})
	return collectBlocks(containers, base)
}

func collectBlocks(blocks *goquery.Selection, base *url.URL) []post {
	seen := map[string]struct{}{}
	var posts []post
	blocks.Each(func(_ int, block *goquery.Selection) {
		href, ok := block.Find(postPathSelector).First().Attr("href")
		if !ok {
			return
		}
		p, ok := blockPost(block, resolve(base, href), "")
		if !ok {
			return
		}
		if _, dup := seen[p.url]; dup {
			return
		}
		seen[p.url] = struct{}{}
		posts = append(posts, p)
	})
	return posts
}

func postLinks(doc *goquery.Document, base *url.URL) []post {
	seen := map[string]struct{}{}
	var posts []post
	doc.Find(postPathSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		p, ok := blockPost(link, resolve(base, href), collapse(link.Text()))
		if !ok {
			return
		}
		if _, dup := seen[p.url]; dup {
			return
		}
		seen[p.url] = struct{}{}
		posts = append(posts, p)
	})
	return posts
}

// linkTitlesOnly is the last resort: anchors to posts whose text is long enough to be a title.
func linkTitlesOnly(doc *goquery.Document, base *url.URL) []post {
	seen := map[string]struct{}{}
	var posts []post
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		target := resolve(base, href)
		if !strings.Contains(target, "/p/") {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		title := collapse(link.Text())
		if len([]rune(title)) < minLinkTitleRunes {
			return
		}
		seen[target] = struct{}{}
		posts = append(posts, post{title: title, description: title, url: target})
	})
	return posts
}

func blockPost(block *goquery.Selection, target, fallbackTitle string) (post, bool) {
	if target == "" {
		return post{}, false
	}
	title := collapse(block.Find("h1, h2, h3, h4").First().Text())
	if title == "" {
		title = fallbackTitle
	}
	if title == "" {
		return post{}, false
	}

	p := post{
		title:       title,
		description: truncateRunes(collapse(block.Find("p").First().Text()), descriptionLimit),
		url:         target,
	}
	if p.description == "" {
		p.description = title
	}
	if stamp, ok := block.Find("time").First().Attr("datetime"); ok {
		if t, err := domain.ParseTimestamp(stamp); err == nil {
			p.publishedAt = &t
		}
	}
	return p, true
}

// enrich reads og/meta tags and JSON-LD from the post page. Failures keep the archive data.
func (n *NewsletterScanner) enrich(ctx context.Context, p post) post {
	doc, err := n.fetchDocument(ctx, p.url, browserHeaders())
	if err != nil {
		n.logger.Debug("enrich post failed", "url", p.url, "error", err)
		return p
	}

	if desc := metaContent(doc, `meta[property="og:description"]`); desc != "" {
		p.description = truncateRunes(desc, descriptionLimit)
	}
	if title := metaContent(doc, `meta[property="og:title"]`); title != "" {
		p.title = title
	}

	stamp := metaContent(doc, `meta[property="article:published_time"]`)
	if stamp == "" {
		stamp = metaContent(doc, `meta[name="datePublished"]`)
	}
	if stamp != "" {
		if t, err := domain.ParseTimestamp(stamp); err == nil {
			p.publishedAt = &t
		}
	}
	if p.publishedAt == nil {
		if t, ok := jsonLDPublished(doc); ok {
			p.publishedAt = &t
		}
	}
	return p
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func jsonLDPublished(doc *goquery.Document) (time.Time, bool) {
	var (
		found time.Time
		ok    bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		objects := []any{payload}
		if list, isList := payload.([]any); isList {
			objects = list
		}
		for _, obj := range objects {
			fields, isMap := obj.(map[string]any)
			if !isMap {
				continue
			}
			raw, _ := fields["datePublished"].(string)
			if raw == "" {
				continue
			}
			if t, err := domain.ParseTimestamp(raw); err == nil {
				found, ok = t, true
				return false
			}
		}
		return true
	})
	return found, ok
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// sourceKey folds a display name into an ascii-ish identifier ("Update Diário" -> "update_diario").
func sourceKey(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), "_"))
}

func browserHeaders() http.Header {
	return http.Header{
		"Accept":          []string{newsletterAcceptHdr},
		"Accept-Language": []string{"pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"},
	}
}
