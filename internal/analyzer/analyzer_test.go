package analyzer

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer/providers"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeProvider struct {
	reply    string
	err      error
	requests []providers.Request
}

func (f *fakeProvider) Name() string              { return "Fake" }
func (f *fakeProvider) DefaultModel() string      { return "fake-1" }
func (f *fakeProvider) SupportedModels() []string { return []string{"fake-1"} }

func (f *fakeProvider) Analyze(_ context.Context, req providers.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

var samplePosts = []types.Post{
	{ID: "1", Text: "Go 1.24 is out"},
	{ID: "2", Text: "buy cheap watches"},
	{ID: "3", Text: "generics in Go"},
}

func TestFilterForRelevance(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  []types.Post
	}{
		{
			name:  "plain JSON",
			reply: `{"relevant_tweets": [{"id": "1", "text": "Go 1.24 is out"}, {"id": "3", "text": "generics in Go"}]}`,
			want:  []types.Post{samplePosts[0], samplePosts[2]},
		},
		{
			name:  "fenced JSON",
			reply: "Here you go:\n```json\n{\"relevant_tweets\": [{\"id\": \"3\", \"text\": \"generics in Go\"}]}\n```",
			want:  []types.Post{samplePosts[2]},
		},
		{
			name:  "empty list honoured",
			reply: `{"relevant_tweets": []}`,
			want:  []types.Post{},
		},
		{
			name:  "missing field keeps input",
			reply: `{"tweets": []}`,
			want:  samplePosts,
		},
		{
			name:  "garbage keeps input",
			reply: "I cannot help with that.",
			want:  samplePosts,
		},
		{
			name: "provider error keeps input",
			err:  errors.New("boom"),
			want: samplePosts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{reply: tt.reply, err: tt.err}
			got := New(p).FilterForRelevance(context.Background(), samplePosts)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, len(p.requests))
			assert.Equal(t, prompts.KindFilter, p.requests[0].Options.Kind)
			assert.Equal(t, "", p.requests[0].Keyword)
		})
	}
}

func TestFilterForRelevanceEmptyInput(t *testing.T) {
	p := &fakeProvider{reply: `{"relevant_tweets": []}`}

	got := New(p).FilterForRelevance(context.Background(), nil)

	assert.Equal(t, 0, len(got))
	assert.Equal(t, 0, len(p.requests))
}

func TestAnalyze(t *testing.T) {
	p := &fakeProvider{reply: "REPORT"}

	got, err := New(p).Analyze(context.Background(), samplePosts, "golang", Options{Kind: prompts.KindTrends, Verbose: true})

	assert.Equal(t, nil, err)
	assert.Equal(t, "REPORT", got)
	assert.Equal(t, "golang", p.requests[0].Keyword)
	assert.Equal(t, prompts.KindTrends, p.requests[0].Options.Kind)
	assert.Equal(t, true, p.requests[0].Options.Verbose)
	assert.Equal(t, samplePosts, p.requests[0].Posts)
}

func TestAnalyzeWrapsProviderError(t *testing.T) {
	cause := &providers.ProviderError{Provider: providers.Gemini, Kind: providers.ErrQuotaExceeded}
	p := &fakeProvider{err: cause}

	_, err := New(p).Analyze(context.Background(), samplePosts, "golang", Options{})

	assert.Equal(t, true, errors.Is(err, ErrAnalysis))
	assert.Equal(t, true, errors.Is(err, providers.ErrQuotaExceeded))
	assert.Equal(t, "AI analysis error: Gemini API quota exceeded. Please check your credits or billing.", err.Error())
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON("sure! {\"a\":1} hope that helps"))
	assert.Equal(t, "nothing here", extractJSON("  nothing here "))
}
