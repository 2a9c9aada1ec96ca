package selector

import (
	"context"
	"sort"
	"strings"
)

// keywordCapabilities maps message keywords to the capability names they
// call for. Deliberately simple; swap in a model-backed InferenceFunc
// for smarter routing.
var keywordCapabilities = map[string]string{
	"email":    "email_management",
	"schedule": "task_scheduling",
	"data":     "data_analysis",
	"analyze":  "data_analysis",
	"code":     "code_review",
	"program":  "debugging",
	"creative": "brainstorming",
	"write":    "content_writing",
	"research": "web_research",
	"find":     "fact_checking",
}

// KeywordInference is the default InferenceFunc: a case-insensitive
// substring scan of the message against a fixed keyword table. Returns
// the deduplicated capability names in deterministic order, or nil when
// no keyword matches.
func KeywordInference(_ context.Context, message string) []string {
	lower := strings.ToLower(message)

	seen := make(map[string]bool)

	for keyword, capability := range keywordCapabilities {
		if strings.Contains(lower, keyword) {
			seen[capability] = true
		}
	}

	if len(seen) == 0 {
		return nil
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
