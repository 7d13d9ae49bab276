package pipeline

import "strings"

// Whole-message smalltalk used as the empty-corpus fallback. Matching
// is exact after trim and lowercase, so "hi there, what was Q3 revenue"
// still routes to retrieval.
var smalltalk = map[string]struct{}{
	"hello":       {},
	"hi":          {},
	"hey":         {},
	"who are you": {},
	"thanks":      {},
	"thank you":   {},
}

// routeQuestion decides whether the question needs grounding in the
// corpus. Documents in the corpus force retrieval for every question;
// only with an empty corpus does the greeting check pick the ungrounded
// path, and anything that is not pure smalltalk still goes through
// retrieval so the caller sees the hedged exhaustion answer rather than
// an invented one.
func routeQuestion(question string, corpusHasDocuments bool) bool {
	if corpusHasDocuments {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.TrimRight(normalized, "!.?")
	if _, ok := smalltalk[normalized]; ok {
		return false
	}
	return true
}
