package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iconidentify/canary/internal/domain"
)

// Client is the remote feed collaborator. The data layer only consumes
// this shape; auth and wire details live behind it.
type Client interface {
	// SearchTweets returns one page of tweets matching query, most
	// recent first, plus the continuation cursor ("" when exhausted).
	SearchTweets(ctx context.Context, query, sortOrder, cursor string) ([]domain.Tweet, string, error)

	// ConversationTweets returns one page of replies in a conversation.
	ConversationTweets(ctx context.Context, conversationID, cursor string) ([]domain.Tweet, string, error)
}

// Sort orders accepted by SearchTweets.
const (
	SortRecency   = "recency"
	SortRelevancy = "relevancy"
)

// HTTPClient fetches tweet pages from the X API v2 search endpoints.
type HTTPClient struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	userAgent   string
	pageSize    int
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	UserAgent   string
	PageSize    int
}

// NewHTTPClient creates a feed client with config defaults applied.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.twitter.com/2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "canaryd/1.0"
	}
	size := cfg.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(base, "/"),
		bearerToken: cfg.BearerToken,
		userAgent:   ua,
		pageSize:    size,
	}
}

type searchResponse struct {
	Data []struct {
		ID             string    `json:"id"`
		Text           string    `json:"text"`
		AuthorID       string    `json:"author_id"`
		ConversationID string    `json:"conversation_id"`
		CreatedAt      time.Time `json:"created_at"`
		PublicMetrics  struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID              string `json:"id"`
			Username        string `json:"username"`
			Name            string `json:"name"`
			ProfileImageURL string `json:"profile_image_url"`
			Verified        bool   `json:"verified"`
		} `json:"users"`
		Media []struct {
			MediaKey        string `json:"media_key"`
			Type            string `json:"type"`
			URL             string `json:"url"`
			PreviewImageURL string `json:"preview_image_url"`
			Width           int    `json:"width"`
			Height          int    `json:"height"`
		} `json:"media"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

// SearchTweets returns one page of recent-search results for query.
func (c *HTTPClient) SearchTweets(ctx context.Context, query, sortOrder, cursor string) ([]domain.Tweet, string, error) {
	if query == "" {
		return nil, "", fmt.Errorf("query is required")
	}

	u, err := url.Parse(c.baseURL + "/tweets/search/recent")
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(c.pageSize))
	q.Set("tweet.fields", "created_at,public_metrics,conversation_id")
	q.Set("expansions", "author_id,attachments.media_keys")
	q.Set("user.fields", "username,name,profile_image_url,verified")
	q.Set("media.fields", "type,url,preview_image_url,width,height")
	if sortOrder != "" {
		q.Set("sort_order", sortOrder)
	}
	if cursor != "" {
		q.Set("next_token", cursor)
	}
	u.RawQuery = q.Encode()

	return c.fetch(ctx, u.String())
}

// ConversationTweets returns one page of replies in a conversation.
func (c *HTTPClient) ConversationTweets(ctx context.Context, conversationID, cursor string) ([]domain.Tweet, string, error) {
	if conversationID == "" {
		return nil, "", fmt.Errorf("conversation id is required")
	}
	return c.SearchTweets(ctx, "conversation_id:"+conversationID, SortRecency, cursor)
}

func (c *HTTPClient) fetch(ctx context.Context, rawURL string) ([]domain.Tweet, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	return body.toTweets(), body.Meta.NextToken, nil
}

func (r *searchResponse) toTweets() []domain.Tweet {
	authors := make(map[string]domain.Author, len(r.Includes.Users))
	for _, u := range r.Includes.Users {
		authors[u.ID] = domain.Author{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.Name,
			AvatarURL:   u.ProfileImageURL,
			Verified:    u.Verified,
		}
	}

	media := make(map[string]domain.Media, len(r.Includes.Media))
	for _, m := range r.Includes.Media {
		media[m.MediaKey] = domain.Media{
			ID:         m.MediaKey,
			Type:       domain.MediaType(m.Type),
			URL:        m.URL,
			PreviewURL: m.PreviewImageURL,
			Width:      m.Width,
			Height:     m.Height,
		}
	}

	tweets := make([]domain.Tweet, 0, len(r.Data))
	for _, d := range r.Data {
		t := domain.Tweet{
			ID:             domain.TweetID(d.ID),
			Text:           d.Text,
			Author:         authors[d.AuthorID],
			ConversationID: d.ConversationID,
			PostedAt:       d.CreatedAt,
			Metrics: domain.TweetMetrics{
				Likes:    d.PublicMetrics.LikeCount,
				Retweets: d.PublicMetrics.RetweetCount,
				Replies:  d.PublicMetrics.ReplyCount,
				Quotes:   d.PublicMetrics.QuoteCount,
			},
		}
		for _, key := range d.Attachments.MediaKeys {
			if m, ok := media[key]; ok {
				t.Media = append(t.Media, m)
			}
		}
		tweets = append(tweets, t)
	}
	return tweets
}
