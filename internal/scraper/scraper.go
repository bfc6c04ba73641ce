package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xstoryfinder/internal/browser"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

const searchTimeout = 5 * time.Minute

// CookieSource supplies the stored X session
type CookieSource interface {
	Cookies() ([]*network.Cookie, error)
}

// Scraper searches X through a logged-in headless browser
type Scraper struct {
	cookies    CookieSource
	headless   bool
	maxScrolls int
}

// New creates a new scraper
func New(cookies CookieSource, headless bool, maxScrolls int) *Scraper {
	if maxScrolls <= 0 {
		maxScrolls = 20
	}
	return &Scraper{cookies: cookies, headless: headless, maxScrolls: maxScrolls}
}

// SearchURL returns the live search page for keyword
func SearchURL(keyword string) string {
	q := url.Values{}
	q.Set("q", keyword+" -filter:replies lang:en")
	q.Set("f", "live")
	return "https://x.com/search?" + q.Encode()
}

// Fetch loads the live search results for keyword and scrolls until limit
// posts are collected or the scroll budget runs out
func (s *Scraper) Fetch(ctx context.Context, keyword string, limit int) ([]types.Post, error) {
	cookies, err := s.cookies.Cookies()
	if err != nil {
		return nil, err
	}

	browserCtx, cancel := browser.NewContext(ctx, s.headless)
	defer cancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, searchTimeout)
	defer timeoutCancel()

	if err := injectCookies(browserCtx, cookies); err != nil {
		return nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	target := SearchURL(keyword)
	logging.Debug("Loading search page", "url", target)
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(PrimaryColumn, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load search page: %w", err)
	}

	posts, err := s.collect(browserCtx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to extract posts: %w", err)
	}
	return posts, nil
}

func injectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// collect scrolls the results, keeping the first sighting of each post
func (s *Scraper) collect(ctx context.Context, limit int) ([]types.Post, error) {
	var posts []types.Post
	seen := make(map[string]bool)
	stale := 0

	for attempt := 0; attempt < s.maxScrolls && len(posts) < limit; attempt++ {
		var raw []rawPost
		if err := chromedp.Run(ctx, chromedp.Evaluate(extractJS, &raw)); err != nil {
			return nil, fmt.Errorf("failed to read posts from DOM: %w", err)
		}

		before := len(posts)
		for _, p := range toPosts(raw) {
			if !seen[p.ID] {
				seen[p.ID] = true
				posts = append(posts, p)
			}
		}

		// Three scrolls without anything new means the results ran out
		if len(posts) == before {
			stale++
			if stale >= 3 {
				break
			}
		} else {
			stale = 0
		}

		if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil)); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(500+attempt*100) * time.Millisecond):
		}
	}

	logging.Debug("Collected posts from search page", "count", len(posts))
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// rawPost is what extractJS returns per article
type rawPost struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Replies   string `json:"replies"`
	Retweets  string `json:"retweets"`
	Likes     string `json:"likes"`
	Views     string `json:"views"`
	IsRepost  bool   `json:"isRepost"`
}

// toPosts converts raw DOM records, dropping reposts and records without an ID
func toPosts(raw []rawPost) []types.Post {
	posts := make([]types.Post, 0, len(raw))
	for _, rp := range raw {
		if rp.ID == "" || rp.IsRepost {
			continue
		}

		p := types.Post{
			ID:       rp.ID,
			Text:     rp.Text,
			Username: rp.Username,
			Metrics: &types.Metrics{
				ReplyCount:      parseMetric(rp.Replies),
				RetweetCount:    parseMetric(rp.Retweets),
				LikeCount:       parseMetric(rp.Likes),
				ImpressionCount: parseMetric(rp.Views),
			},
		}
		if ts, err := time.Parse(time.RFC3339, rp.Timestamp); err == nil {
			p.CreatedAt = &ts
		}
		posts = append(posts, p)
	}
	return posts
}

// parseMetric converts abbreviated counts like "1.2K", "5.7M", "1,234"
func parseMetric(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1_000
		s = s[:len(s)-1]
	case "M":
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}
