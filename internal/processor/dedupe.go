// Package processor cleans fetched posts before they are analyzed.
package processor

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

// KeyFunc extracts the duplicate key from a post
type KeyFunc func(types.Post) string

// ByID keys posts by their platform ID
func ByID(p types.Post) string { return p.ID }

// ByText keys posts by their body text
func ByText(p types.Post) string { return p.Text }

// ParseKey maps a key name ("id" or "text") to its KeyFunc
func ParseKey(name string) (KeyFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "id":
		return ByID, nil
	case "text":
		return ByText, nil
	default:
		return nil, fmt.Errorf("unknown dedupe key: %s (expected id or text)", name)
	}
}

// Dedupe keeps the first post seen for each key, preserving the order of
// first occurrences. The input slice is not modified.
func Dedupe[K comparable](posts []types.Post, key func(types.Post) K) []types.Post {
	seen := make(map[K]bool, len(posts))
	out := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		k := key(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}
