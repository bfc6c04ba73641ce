package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

// Variables are substituted into {{name}} placeholders
type Variables map[string]any

const ellipsis = "..."

// Render substitutes vars into tmpl. The tweets variable is always rendered
// from posts according to settings and kind, and tweet_count is always
// len(posts). Substitution is a single literal pass: values are never
// re-scanned for placeholders, and placeholders with no matching key are
// left untouched.
func Render(tmpl string, vars Variables, posts []types.Post, settings Settings, kind Kind) string {
	all := make(Variables, len(vars)+2)
	for k, v := range vars {
		all[k] = v
	}
	all["tweets"] = FormatPosts(posts, settings, kind)
	all["tweet_count"] = len(posts)
	return substitute(tmpl, all)
}

func substitute(tmpl string, vars Variables) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", stringify(vars[k]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// FormatPosts renders posts into the block substituted for {{tweets}}.
// Filter requests get a JSON dump of the full records; every other kind
// gets a numbered or bulleted list of (possibly truncated) post text.
func FormatPosts(posts []types.Post, settings Settings, kind Kind) string {
	if kind == KindFilter {
		if posts == nil {
			posts = []types.Post{}
		}
		data, err := json.MarshalIndent(posts, "", "  ")
		if err != nil {
			// types.Post only holds JSON-safe fields
			return "[]"
		}
		return string(data)
	}

	shown := posts
	if settings.MaxPostsDisplay >= 0 && len(shown) > settings.MaxPostsDisplay {
		shown = shown[:settings.MaxPostsDisplay]
	}

	entries := make([]string, len(shown))
	for i, p := range shown {
		text := Truncate(p.Text, settings.MaxPostLength)
		if settings.IncludeMetadata {
			text = fmt.Sprintf("%s\n   Followers: %d | Impressions: %d", text, p.FollowerCount(), p.ImpressionCount())
		}
		if settings.NumberPosts {
			entries[i] = fmt.Sprintf("%d. %s", i+1, text)
		} else {
			entries[i] = "- " + text
		}
	}

	sep := "\n"
	if settings.IncludeMetadata {
		sep = "\n\n"
	}
	return strings.Join(entries, sep)
}

// Truncate cuts s to maxLen characters and appends an ellipsis when s is
// longer. maxLen <= 0 disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + ellipsis
}
