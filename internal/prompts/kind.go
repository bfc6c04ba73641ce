package prompts

import (
	"fmt"
	"strings"
)

// Kind is the requested report flavor, or the internal filter mode
type Kind string

const (
	KindDefault     Kind = "default"
	KindSentiment   Kind = "sentiment"
	KindTrends      Kind = "trends"
	KindCompetitive Kind = "competitive"
	KindFilter      Kind = "filter"
)

// AnalysisKinds lists the kinds a user may request. KindFilter is internal.
func AnalysisKinds() []Kind {
	return []Kind{KindDefault, KindSentiment, KindTrends, KindCompetitive}
}

// ParseKind validates a user-supplied analysis kind. Empty means default.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindDefault, nil
	}
	for _, k := range AnalysisKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported analysis type: %s (supported: %s)", s, joinKinds(AnalysisKinds()))
}

func joinKinds(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
