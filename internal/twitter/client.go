package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

const (
	DefaultBaseURL = "https://api.x.com/2"

	minPageSize     = 10
	maxPageSize     = 100
	defaultMaxPages = 5
)

var (
	ErrMissingToken = errors.New("X API bearer token is required (set X_BEARER_TOKEN)")
	ErrUnauthorized = errors.New("X API authentication failed. Please check your X_BEARER_TOKEN")
	ErrForbidden    = errors.New("X API access forbidden. Please check your API permissions")
	ErrRateLimited  = errors.New("X API rate limit exceeded. Please try again later")
)

// Client searches recent posts through the X API v2
type Client struct {
	baseURL  string
	http     *http.Client
	maxPages int
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithMaxPages bounds how many result pages one Fetch may read
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// New creates a client authenticating with an app-only bearer token
func New(bearerToken string, opts ...Option) (*Client, error) {
	if bearerToken == "" {
		return nil, ErrMissingToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 30 * time.Second

	c := &Client{
		baseURL:  DefaultBaseURL,
		http:     httpClient,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query builds the search expression for keyword: English posts, no retweets or replies
func Query(keyword string) string {
	return keyword + " -is:retweet -is:reply lang:en"
}

type searchResponse struct {
	Data []struct {
		ID            string     `json:"id"`
		Text          string     `json:"text"`
		AuthorID      string     `json:"author_id"`
		CreatedAt     *time.Time `json:"created_at"`
		PublicMetrics *struct {
			RetweetCount    int `json:"retweet_count"`
			ReplyCount      int `json:"reply_count"`
			LikeCount       int `json:"like_count"`
			QuoteCount      int `json:"quote_count"`
			ImpressionCount int `json:"impression_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// Fetch returns up to limit recent posts matching keyword, following
// pagination for a bounded number of pages
func (c *Client) Fetch(ctx context.Context, keyword string, limit int) ([]types.Post, error) {
	if keyword == "" {
		return nil, errors.New("keyword is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}

	query := Query(keyword)
	logging.Debug("Searching X API", "query", query, "limit", limit)

	var posts []types.Post
	nextToken := ""
	for page := 0; page < c.maxPages && len(posts) < limit; page++ {
		resp, err := c.search(ctx, query, pageSize(limit-len(posts)), nextToken)
		if err != nil {
			return nil, err
		}
		posts = append(posts, toPosts(resp)...)

		nextToken = resp.Meta.NextToken
		if nextToken == "" {
			break
		}
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// pageSize clamps the remaining count to the API's accepted page range
func pageSize(remaining int) int {
	return min(max(remaining, minPageSize), maxPageSize)
}

func (c *Client) search(ctx context.Context, query string, size int, nextToken string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(size))
	params.Set("tweet.fields", "created_at,author_id,public_metrics")
	params.Set("user.fields", "username,public_metrics")
	params.Set("expansions", "author_id")
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call X API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden:
		return nil, ErrForbidden
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("X API returned status %d: %.300s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse X API response: %w", err)
	}
	return &sr, nil
}

func toPosts(sr *searchResponse) []types.Post {
	type author struct {
		username  string
		followers int
	}
	authors := make(map[string]author, len(sr.Includes.Users))
	for _, u := range sr.Includes.Users {
		authors[u.ID] = author{username: u.Username, followers: u.PublicMetrics.FollowersCount}
	}

	posts := make([]types.Post, 0, len(sr.Data))
	for _, d := range sr.Data {
		a := authors[d.AuthorID]
		p := types.Post{
			ID:        d.ID,
			Text:      d.Text,
			AuthorID:  d.AuthorID,
			Username:  a.username,
			CreatedAt: d.CreatedAt,
		}
		if d.PublicMetrics != nil {
			p.Metrics = &types.Metrics{
				RetweetCount:        d.PublicMetrics.RetweetCount,
				LikeCount:           d.PublicMetrics.LikeCount,
				ReplyCount:          d.PublicMetrics.ReplyCount,
				QuoteCount:          d.PublicMetrics.QuoteCount,
				ImpressionCount:     d.PublicMetrics.ImpressionCount,
				AuthorFollowerCount: a.followers,
			}
		}
		posts = append(posts, p)
	}
	return posts
}
