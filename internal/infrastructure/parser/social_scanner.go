package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"DailyByte/internal/domain"
	"DailyByte/internal/scanner"
)

const (
	defaultXBaseURL = "https://api.twitter.com/2"
	titleRunes      = 100
	minXPageSize    = 5
)

// SocialScanner reads recent posts of configured handles through the X API v2.
type SocialScanner struct {
	fetcher
	baseURL string
	token   string
}

var _ scanner.Scanner = (*SocialScanner)(nil)

// NewSocialScanner wires the X API client; an empty token disables scanning.
func NewSocialScanner(opts Options, baseURL, bearerToken string) *SocialScanner {
	if baseURL == "" {
		baseURL = defaultXBaseURL
	}
	return &SocialScanner{
		fetcher: newFetcher(opts),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   bearerToken,
	}
}

// Name identifies the strategy inside the registry.
func (s *SocialScanner) Name() string {
	return "social"
}

type xUserResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type xTweet struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	CreatedAt     string         `json:"created_at"`
	PublicMetrics map[string]int `json:"public_metrics"`
}

type xTweetsResponse struct {
	Data []xTweet `json:"data"`
}

// Scan fetches recent tweets per handle. Without a bearer token the family is skipped.
func (s *SocialScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if s.token == "" {
		s.logger.Info("x bearer token not set, skipping family", "family", req.Family)
		return nil, nil
	}
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no sources provided for family %s", req.Family)
	}

	var items []domain.RawItem
	for _, src := range req.Sources {
		found, err := s.scanHandle(ctx, req, src)
		if err != nil {
			s.logger.Warn("x handle failed", "handle", src.Name, "error", err)
			continue
		}
		items = append(items, found...)
	}
	return items, nil
}

func (s *SocialScanner) scanHandle(ctx context.Context, req scanner.Request, src scanner.Source) ([]domain.RawItem, error) {
	handle := strings.TrimPrefix(src.Name, "@")

	var user xUserResponse
	if err := s.getJSON(ctx, s.baseURL+"/users/by/username/"+url.PathEscape(handle), &user); err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user.Data.ID == "" {
		return nil, fmt.Errorf("user %s not found", handle)
	}

	pageSize := req.MaxItems
	if pageSize < minXPageSize {
		pageSize = minXPageSize
	}
	query := url.Values{}
	query.Set("max_results", strconv.Itoa(pageSize))
	query.Set("tweet.fields", "created_at,public_metrics,entities")
	query.Set("expansions", "author_id")

	var tweets xTweetsResponse
	endpoint := fmt.Sprintf("%s/users/%s/tweets?%s", s.baseURL, url.PathEscape(user.Data.ID), query.Encode())
	if err := s.getJSON(ctx, endpoint, &tweets); err != nil {
		return nil, fmt.Errorf("recent tweets: %w", err)
	}

	items := make([]domain.RawItem, 0, len(tweets.Data))
	for _, tweet := range tweets.Data {
		if req.MaxItems > 0 && len(items) >= req.MaxItems {
			break
		}
		createdAt, err := domain.ParseTimestamp(tweet.CreatedAt)
		if err != nil || tweet.ID == "" {
			continue
		}
		if createdAt.Before(req.Cutoff) {
			continue
		}
		items = append(items, domain.RawItem{
			Title:       truncateRunes(tweet.Text, titleRunes),
			Content:     tweet.Text,
			URL:         fmt.Sprintf("https://x.com/%s/status/%s", handle, tweet.ID),
			SourceName:  "@" + handle,
			SourceType:  req.TypeFor(src),
			Author:      handle,
			PublishedAt: createdAt,
			Engagement: map[string]float64{
				"likes":    float64(tweet.PublicMetrics["like_count"]),
				"retweets": float64(tweet.PublicMetrics["retweet_count"]),
				"replies":  float64(tweet.PublicMetrics["reply_count"]),
			},
			RawData: map[string]any{"id": tweet.ID, "created_at": tweet.CreatedAt},
		})
	}
	return items, nil
}

func (s *SocialScanner) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := s.get(ctx, endpoint, http.Header{"Authorization": []string{"Bearer " + s.token}})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
