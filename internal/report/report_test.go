package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/ibeckermayer/xstoryfinder/internal/app"
)

func sampleResult() *app.Result {
	return &app.Result{
		Keyword:  "golang",
		Provider: "Gemini",
		Model:    "gemini-1.5-flash",
		Fetched:  50,
		Unique:   42,
		Analyzed: 30,
		Report:   "\n🎯 KEY THEMES\n- generics\n",
		Duration: 2340 * time.Millisecond,
	}
}

func TestPrintPlain(t *testing.T) {
	var buf bytes.Buffer

	err := New(&buf, false).Print(sampleResult())

	assert.Equal(t, nil, err)
	assert.Equal(t, "\n--- AI Analysis Report ---\n🎯 KEY THEMES\n- generics\n--------------------------\n", buf.String())
}

func TestRenderEmpty(t *testing.T) {
	got := New(&bytes.Buffer{}, true).Render(&app.Result{Keyword: "zzz", Empty: true})
	assert.Equal(t, "No posts found for \"zzz\".\n", got)
}

func TestRenderStyled(t *testing.T) {
	got := New(&bytes.Buffer{}, true).Render(sampleResult())

	for _, want := range []string{"AI Analysis Report: golang", "Gemini · gemini-1.5-flash · 50 fetched, 42 unique, 30 relevant · 2.3s", "🎯 KEY THEMES\n- generics\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("styled output missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryOmitsUnchangedCount(t *testing.T) {
	res := sampleResult()
	res.Analyzed = res.Unique
	res.Duration = 0

	assert.Equal(t, "Gemini · gemini-1.5-flash · 50 fetched, 42 unique", summary(res))
}
