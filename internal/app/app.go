package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/processor"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

// Fetcher retrieves posts matching a keyword
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, limit int) ([]types.Post, error)
}

// RunOptions describe one fetch-and-analyze run
type RunOptions struct {
	Keyword string
	Limit   int
	Kind    prompts.Kind
	Filter  bool             // ask the provider to drop off-topic posts first
	Dedupe  processor.KeyFunc // nil dedupes by ID
	Verbose bool
}

// Result is the outcome of a run. Empty is set when nothing was fetched, in
// which case no provider call was made.
type Result struct {
	Keyword  string
	Provider string
	Model    string
	Fetched  int
	Unique   int
	Analyzed int
	Empty    bool
	Report   string
	Duration time.Duration
}

// App wires a post source to an analyzer
type App struct {
	fetcher  Fetcher
	analyzer *analyzer.Analyzer
	model    string
}

// New creates a new App instance. model is the configured model name,
// reported in results; empty means the provider default.
func New(fetcher Fetcher, an *analyzer.Analyzer, model string) *App {
	return &App{fetcher: fetcher, analyzer: an, model: model}
}

// Run performs fetch -> dedupe -> filter -> analyze
func (a *App) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Keyword == "" {
		return nil, errors.New("keyword is required")
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", opts.Limit)
	}

	start := time.Now()
	provider := a.analyzer.Provider()
	res := &Result{
		Keyword:  opts.Keyword,
		Provider: provider.Name(),
		Model:    a.model,
	}
	if res.Model == "" {
		res.Model = provider.DefaultModel()
	}

	// Step 1: Fetch posts
	logging.Info("Fetching posts", "keyword", opts.Keyword, "limit", opts.Limit)
	posts, err := a.fetcher.Fetch(ctx, opts.Keyword, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	res.Fetched = len(posts)

	if len(posts) == 0 {
		logging.Info("No posts found for the given keyword")
		res.Empty = true
		res.Duration = time.Since(start)
		return res, nil
	}

	// Step 2: Drop duplicates
	key := opts.Dedupe
	if key == nil {
		key = processor.ByID
	}
	posts = processor.Dedupe[string](posts, key)
	res.Unique = len(posts)
	logging.Info("Processed posts", "fetched", res.Fetched, "unique", res.Unique)

	// Step 3: Optional relevance filter; failures keep every post
	if opts.Filter {
		posts = a.analyzer.FilterForRelevance(ctx, posts)
	}
	res.Analyzed = len(posts)

	// Step 4: Analyze
	logging.Info("AI analysis in progress", "provider", res.Provider, "model", res.Model, "posts", len(posts))
	report, err := a.analyzer.Analyze(ctx, posts, opts.Keyword, analyzer.Options{Kind: opts.Kind, Verbose: opts.Verbose})
	if err != nil {
		return nil, err
	}

	res.Report = report
	res.Duration = time.Since(start)
	return res, nil
}
