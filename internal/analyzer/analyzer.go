package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer/providers"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

// ErrAnalysis wraps any provider failure on the analyze path
var ErrAnalysis = errors.New("AI analysis error")

// Options tune one Analyze call
type Options struct {
	Kind    prompts.Kind
	Verbose bool
}

// Analyzer runs relevance filtering and report generation against a provider
type Analyzer struct {
	provider providers.Provider
}

// New creates an analyzer over an already-constructed provider
func New(provider providers.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Provider returns the backing provider
func (a *Analyzer) Provider() providers.Provider {
	return a.provider
}

// filterResponse is the JSON shape the filter template asks for
type filterResponse struct {
	RelevantTweets *[]types.Post `json:"relevant_tweets"`
}

// FilterForRelevance asks the provider which posts are on-topic. It never
// fails: any provider error, unparseable reply, or reply without
// relevant_tweets logs a warning and returns the input unchanged. An empty
// relevant_tweets list is honoured.
func (a *Analyzer) FilterForRelevance(ctx context.Context, posts []types.Post) []types.Post {
	if len(posts) == 0 {
		return posts
	}

	text, err := a.provider.Analyze(ctx, providers.Request{
		Posts:   posts,
		Options: providers.Options{Kind: prompts.KindFilter},
	})
	if err != nil {
		logging.Warn("Relevance filter failed, keeping all posts", "err", err)
		return posts
	}

	var resp filterResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		logging.Warn("Could not parse relevance filter reply, keeping all posts", "err", err)
		return posts
	}
	if resp.RelevantTweets == nil {
		logging.Warn("Relevance filter reply has no relevant_tweets, keeping all posts")
		return posts
	}

	kept := *resp.RelevantTweets
	logging.Info("Filtered posts for relevance", "before", len(posts), "after", len(kept))
	return kept
}

// Analyze produces the report text for posts about keyword
func (a *Analyzer) Analyze(ctx context.Context, posts []types.Post, keyword string, opts Options) (string, error) {
	text, err := a.provider.Analyze(ctx, providers.Request{
		Posts:   posts,
		Keyword: keyword,
		Options: providers.Options{Kind: opts.Kind, Verbose: opts.Verbose},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	return text, nil
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\s*```")
	bareObject = regexp.MustCompile(`(?s)(\{.*\})`)
)

// extractJSON pulls a JSON object out of a model reply, handling markdown
// code fences and surrounding prose
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := bareObject.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}
