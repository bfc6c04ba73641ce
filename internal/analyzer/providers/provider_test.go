package providers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/go-playground/assert/v2"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/store"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testPrompts returns a manager whose templates echo which template was used
func testPrompts() *prompts.Manager {
	cfg := prompts.DefaultConfig()
	cfg.Templates = map[string]string{
		"default":   "default.md",
		"sentiment": "sentiment.md",
		"filter":    "filter.md",
	}
	cfg.ProviderPreferences = map[string]prompts.Preference{
		"openrouter": {
			ModelSpecific: map[string]prompts.Preference{
				"anthropic/claude-3.5-sonnet": {PreferredTemplate: "sonnet.md"},
			},
		},
	}
	fsys := fstest.MapFS{
		"default.md":   {Data: []byte("default:{{keyword}}:{{tweet_count}}")},
		"sentiment.md": {Data: []byte("sentiment:{{keyword}}")},
		"filter.md":    {Data: []byte("filter:{{tweets}}")},
		"sonnet.md":    {Data: []byte("sonnet:{{keyword}}")},
	}
	return prompts.New(fsys, cfg)
}

type fakeCall struct {
	prompt string
	model  string
}

func fakeBase(id ID, cfg Config, reply string, replyErr error, calls *[]fakeCall) *base {
	info, _ := Lookup(id)
	return &base{
		info:    info,
		cfg:     cfg,
		prompts: testPrompts(),
		complete: func(_ context.Context, prompt, model string) (string, error) {
			*calls = append(*calls, fakeCall{prompt: prompt, model: model})
			return reply, replyErr
		},
	}
}

func TestAnalyzeRendersPromptForKind(t *testing.T) {
	var calls []fakeCall
	b := fakeBase(Gemini, Config{Provider: Gemini, Model: "gemini-1.5-pro"}, "report", nil, &calls)
	posts := []types.Post{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}

	got, err := b.Analyze(context.Background(), Request{Posts: posts, Keyword: "ai"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "report", got)

	_, err = b.Analyze(context.Background(), Request{Posts: posts, Keyword: "ai", Options: Options{Kind: prompts.KindSentiment}})
	assert.Equal(t, nil, err)

	assert.Equal(t, []fakeCall{
		{prompt: "default:ai:2", model: "gemini-1.5-pro"},
		{prompt: "sentiment:ai", model: "gemini-1.5-pro"},
	}, calls)
}

func TestAnalyzeUsesDefaultModelAsTemplateHint(t *testing.T) {
	var calls []fakeCall
	b := fakeBase(OpenRouter, Config{Provider: OpenRouter}, "ok", nil, &calls)

	_, err := b.Analyze(context.Background(), Request{Keyword: "ai"})

	assert.Equal(t, nil, err)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", calls[0].model)
	assert.Equal(t, "sonnet:ai", calls[0].prompt)
}

func TestAnalyzeFilterRequest(t *testing.T) {
	var calls []fakeCall
	b := fakeBase(Anthropic, Config{Provider: Anthropic}, `{"relevant_tweets": []}`, nil, &calls)

	_, err := b.Analyze(context.Background(), Request{Posts: []types.Post{{ID: "7", Text: "x"}}, Options: Options{Kind: prompts.KindFilter}})

	assert.Equal(t, nil, err)
	assert.Equal(t, "filter:[\n  {\n    \"id\": \"7\",\n    \"text\": \"x\"\n  }\n]", calls[0].prompt)
}

// The built-in config must route each kind to its own template for every
// catalog model, or the filter reply loses relevant_tweets.
func TestBuiltinTemplatesForEveryCatalogModel(t *testing.T) {
	pm := prompts.Default()
	want := map[prompts.Kind]string{
		prompts.KindDefault:     "social-media-analysis.md",
		prompts.KindSentiment:   "sentiment-focused.md",
		prompts.KindTrends:      "trend-analysis.md",
		prompts.KindCompetitive: "competitive-analysis.md",
		prompts.KindFilter:      "relevance-filter.md",
	}

	for _, info := range Catalog() {
		for _, model := range info.Models {
			for kind, name := range want {
				if got := pm.ResolveTemplateName(kind, string(info.ID), model); got != name {
					t.Errorf("%s/%s: %s resolved to %s, want %s", info.ID, model, kind, got, name)
				}
			}
		}
	}
}

func TestAnalyzeRejectsEmptyResponse(t *testing.T) {
	for _, reply := range []string{"", "  \n\t "} {
		var calls []fakeCall
		b := fakeBase(Gemini, Config{Provider: Gemini}, reply, nil, &calls)

		_, err := b.Analyze(context.Background(), Request{Keyword: "ai"})

		assert.Equal(t, true, errors.Is(err, ErrEmptyResponse))
		assert.Equal(t, "Empty response from Gemini model", err.Error())
	}
}

func TestAnalyzeNormalizesBackendErrors(t *testing.T) {
	var calls []fakeCall
	cause := errors.New("429 Too Many Requests")
	b := fakeBase(OpenRouter, Config{Provider: OpenRouter}, "", cause, &calls)

	_, err := b.Analyze(context.Background(), Request{Keyword: "ai"})

	assert.Equal(t, true, errors.Is(err, ErrRateLimited))
	assert.Equal(t, true, errors.Is(err, cause))
	assert.Equal(t, "OpenRouter API rate limit exceeded. Please try again later.", err.Error())
}

func TestAnalyzeDumpsExchange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	var calls []fakeCall
	b := fakeBase(Gemini, Config{Provider: Gemini, DumpDir: dir}, "report", nil, &calls)

	_, err := b.Analyze(context.Background(), Request{Keyword: "ai"})
	assert.Equal(t, nil, err)

	paths, err := store.ListExchanges(dir)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(paths))

	ex, err := store.LoadExchange(paths[0])
	assert.Equal(t, nil, err)
	assert.Equal(t, "gemini", ex.Provider)
	assert.Equal(t, "gemini-1.5-flash", ex.Model)
	assert.Equal(t, "default", ex.Kind)
	assert.Equal(t, "default:ai:0", ex.Prompt)
	assert.Equal(t, "report", ex.Response)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, Config{}.maxTokens())
	assert.Equal(t, 512, Config{MaxTokens: 512}.maxTokens())
	assert.Equal(t, DefaultTemperature, Config{}.temperature())
	assert.Equal(t, 0.2, Config{Temperature: 0.2}.temperature())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Provider: "bogus", APIKey: "k"}, nil)
	assert.Equal(t, true, errors.Is(err, ErrUnsupportedProvider))

	_, err = New(Config{Provider: OpenRouter}, nil)
	assert.Equal(t, true, errors.Is(err, ErrMissingAPIKey))
}

func TestNewDispatches(t *testing.T) {
	for _, id := range Supported() {
		t.Run(string(id), func(t *testing.T) {
			p, err := New(Config{Provider: id, APIKey: "test-key"}, nil)
			if err != nil {
				t.Fatalf("New(%s): %v", id, err)
			}
			info, _ := Lookup(id)
			assert.Equal(t, info.Name, p.Name())
			assert.Equal(t, info.DefaultModel, p.DefaultModel())
			assert.Equal(t, info.Models, p.SupportedModels())
		})
	}
}
