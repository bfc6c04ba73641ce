package types

import "time"

// Post represents a fetched X post
type Post struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	AuthorID  string     `json:"author_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Metrics   *Metrics   `json:"public_metrics,omitempty"`
}

// Metrics holds engagement counters for a post. Only set when the source
// supplies them.
type Metrics struct {
	RetweetCount        int `json:"retweet_count"`
	LikeCount           int `json:"like_count"`
	ReplyCount          int `json:"reply_count"`
	QuoteCount          int `json:"quote_count"`
	ImpressionCount     int `json:"impression_count"`
	AuthorFollowerCount int `json:"author_follower_count"`
}

// FollowerCount returns the author's follower count, or 0 when unknown.
func (p Post) FollowerCount() int {
	if p.Metrics == nil {
		return 0
	}
	return p.Metrics.AuthorFollowerCount
}

// ImpressionCount returns the post's impression count, or 0 when unknown.
func (p Post) ImpressionCount() int {
	if p.Metrics == nil {
		return 0
	}
	return p.Metrics.ImpressionCount
}
