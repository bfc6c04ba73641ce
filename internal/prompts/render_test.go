package prompts

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-playground/assert/v2"

	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

func textPosts(texts ...string) []types.Post {
	posts := make([]types.Post, len(texts))
	for i, text := range texts {
		posts[i] = types.Post{ID: string(rune('a' + i)), Text: text}
	}
	return posts
}

func TestRenderSubstitutesVariables(t *testing.T) {
	settings := Settings{MaxPostsDisplay: 10, NumberPosts: true}
	tmpl := "About {{keyword}} ({{tweet_count}}):\n{{tweets}}\n{{unknown}}"

	got := Render(tmpl, Variables{"keyword": "golang"}, textPosts("one", "two"), settings, KindDefault)

	assert.Equal(t, "About golang (2):\n1. one\n2. two\n{{unknown}}", got)
}

func TestRenderNilValueBecomesEmpty(t *testing.T) {
	got := Render("[{{missing}}]", Variables{"missing": nil}, nil, Settings{}, KindDefault)
	assert.Equal(t, "[]", got)
}

func TestRenderIsNotNested(t *testing.T) {
	settings := Settings{MaxPostsDisplay: 10, NumberPosts: true}

	got := Render("{{keyword}}|{{tweet_count}}", Variables{"keyword": "{{tweet_count}}"}, textPosts("x"), settings, KindDefault)

	assert.Equal(t, "{{tweet_count}}|1", got)
}

func TestRenderOverridesTweetCount(t *testing.T) {
	settings := Settings{MaxPostsDisplay: 1, NumberPosts: true}
	vars := Variables{"tweet_count": 999, "tweets": "ignored"}

	got := Render("{{tweet_count}}", vars, textPosts("a", "b", "c"), settings, KindDefault)

	assert.Equal(t, "3", got)
}

func TestFormatPostsTruncation(t *testing.T) {
	settings := Settings{MaxPostLength: 10, MaxPostsDisplay: 10, NumberPosts: false}
	long := strings.Repeat("é", 25)

	got := FormatPosts(textPosts(long, "short"), settings, KindDefault)
	lines := strings.Split(got, "\n")

	assert.Equal(t, 2, len(lines))
	entry := strings.TrimPrefix(lines[0], "- ")
	assert.Equal(t, 13, utf8.RuneCountInString(entry))
	assert.Equal(t, true, strings.HasSuffix(entry, "..."))
	assert.Equal(t, "- short", lines[1])
}

func TestFormatPostsNoTruncationWhenZero(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := FormatPosts(textPosts(long), Settings{MaxPostLength: 0, MaxPostsDisplay: 5, NumberPosts: true}, KindDefault)
	assert.Equal(t, "1. "+long, got)
}

func TestFormatPostsExactLengthNotTruncated(t *testing.T) {
	got := Truncate("abcde", 5)
	assert.Equal(t, "abcde", got)
}

func TestFormatPostsMaxDisplay(t *testing.T) {
	settings := Settings{MaxPostsDisplay: 2, NumberPosts: true}

	got := FormatPosts(textPosts("first", "second", "third", "fourth"), settings, KindSentiment)

	assert.Equal(t, "1. first\n2. second", got)
}

func TestFormatPostsWithMetadata(t *testing.T) {
	posts := []types.Post{
		{ID: "1", Text: "hello", Metrics: &types.Metrics{AuthorFollowerCount: 42, ImpressionCount: 1000}},
		{ID: "2", Text: "bare"},
	}
	settings := Settings{MaxPostsDisplay: 10, IncludeMetadata: true, NumberPosts: true}

	got := FormatPosts(posts, settings, KindTrends)

	want := "1. hello\n   Followers: 42 | Impressions: 1000\n\n2. bare\n   Followers: 0 | Impressions: 0"
	assert.Equal(t, want, got)
}

func TestFormatPostsFilterDumpsFullRecords(t *testing.T) {
	long := strings.Repeat("y", 400)
	posts := []types.Post{
		{ID: "1", Text: long, Username: "alice", Metrics: &types.Metrics{LikeCount: 3}},
		{ID: "2", Text: "two"},
	}
	settings := Settings{MaxPostLength: 10, MaxPostsDisplay: 1, NumberPosts: true}

	got := FormatPosts(posts, settings, KindFilter)

	var decoded []types.Post
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("filter block is not JSON: %v\n%s", err, got)
	}
	assert.Equal(t, posts, decoded)
}

func TestFormatPostsFilterEmpty(t *testing.T) {
	assert.Equal(t, "[]", FormatPosts(nil, Settings{}, KindFilter))
}
