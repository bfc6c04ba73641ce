package providers

import (
	"context"
	"strings"
	"time"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/store"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
)

// Provider defines the interface for LLM backends
type Provider interface {
	Name() string
	DefaultModel() string
	SupportedModels() []string
	Analyze(ctx context.Context, req Request) (string, error)
}

// Request is one analysis call. Keyword is empty for filter requests.
type Request struct {
	Posts   []types.Post
	Keyword string
	Options Options
}

// Options tune a single request
type Options struct {
	Verbose bool
	Kind    prompts.Kind // empty means prompts.KindDefault
}

// Config is everything a provider needs. The config layer fills it in;
// providers never read the environment themselves.
type Config struct {
	Provider    ID
	APIKey      string
	Model       string  // empty uses the provider default
	BaseURL     string  // empty uses the backend's public endpoint
	MaxTokens   int     // 0 uses DefaultMaxTokens
	Temperature float64 // 0 uses DefaultTemperature
	DumpDir     string  // when set, every exchange is written here
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

// completeFunc sends a rendered prompt to a backend and returns its text
type completeFunc func(ctx context.Context, prompt, model string) (string, error)

// base carries the behavior every backend shares: model resolution, prompt
// rendering, the backend call, empty-response rejection and error
// normalization. Backends plug in complete and classify.
type base struct {
	info     Info
	cfg      Config
	prompts  *prompts.Manager
	complete completeFunc
	classify func(error) error
}

func (b *base) Name() string {
	return b.info.Name
}

func (b *base) DefaultModel() string {
	return b.info.DefaultModel
}

func (b *base) SupportedModels() []string {
	out := make([]string, len(b.info.Models))
	copy(out, b.info.Models)
	return out
}

func (b *base) model() string {
	if b.cfg.Model != "" {
		return b.cfg.Model
	}
	return b.info.DefaultModel
}

// Analyze renders the prompt for req and sends it to the backend
func (b *base) Analyze(ctx context.Context, req Request) (string, error) {
	model := b.model()
	kind := req.Options.Kind
	if kind == "" {
		kind = prompts.KindDefault
	}

	prompt := b.prompts.Prompt(kind, prompts.Variables{"keyword": req.Keyword}, req.Posts, strings.ToLower(string(b.info.ID)), model)

	if req.Options.Verbose {
		logging.Info("Using model", "provider", b.info.Name, "model", model, "kind", kind)
	}
	logging.Debug("Sending prompt", "provider", b.info.ID, "chars", len(prompt), "posts", len(req.Posts))

	text, err := b.complete(ctx, prompt, model)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	b.dump(kind, model, prompt, text, err)
	if err != nil {
		return "", normalize(b.info.ID, model, err, b.classify)
	}
	return text, nil
}

func (b *base) dump(kind prompts.Kind, model, prompt, response string, callErr error) {
	if b.cfg.DumpDir == "" {
		return
	}
	ex := store.Exchange{
		Timestamp: time.Now(),
		Provider:  string(b.info.ID),
		Model:     model,
		Kind:      string(kind),
		Prompt:    prompt,
		Response:  response,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	}
	path, err := store.SaveExchange(b.cfg.DumpDir, ex)
	if err != nil {
		logging.Warn("Failed to dump LLM exchange", "err", err)
		return
	}
	logging.Debug("Dumped LLM exchange", "path", path)
}
