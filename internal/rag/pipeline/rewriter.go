package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/rag/llm"
)

const rewriteSystemPrompt = `You rewrite search queries to improve document retrieval.
Given a question, the draft answer that failed grounding and a sample of what was retrieved,
produce one better query. Respond with only a JSON object: {"query": "..."}`

type rewriteResponse struct {
	Query string `json:"query"`
}

// rewriteQuery asks the model for a better retrieval query after a
// rejection. Any model failure or unusable output leaves the query
// unchanged; the retry proceeds either way.
func rewriteQuery(ctx context.Context, provider llm.Provider, question, failedQuery, failedDraft string, hits []ragModel.ChunkHit) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Original question: %s\n", question)
	fmt.Fprintf(&prompt, "Failed draft answer:\n%s\n", failedDraft)
	if len(hits) > 0 {
		prompt.WriteString("Retrieved so far:\n")
		limit := config.RewriteHintLimit
		if len(hits) < limit {
			limit = len(hits)
		}
		for _, hit := range hits[:limit] {
			fmt.Fprintf(&prompt, "- %s::%s\n", hit.Title, truncateHint(hit.Content, 160))
		}
	}
	raw, err := provider.Chat(ctx, rewriteSystemPrompt, prompt.String())
	if err != nil {
		return failedQuery
	}
	rewritten, err := extractQuery(raw)
	if err != nil || rewritten == "" {
		return failedQuery
	}
	return rewritten
}

// truncateHint caps hint text at max bytes without splitting a rune.
func truncateHint(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// extractQuery pulls the query out of the model output. Models often
// wrap JSON in fences or prose, so after a direct unmarshal fails we
// scan for the outermost object.
func extractQuery(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	var parsed rewriteResponse
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return strings.TrimSpace(parsed.Query), nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", &faults.ParseFailure{Input: trimmed}
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return "", &faults.ParseFailure{Input: trimmed}
	}
	return strings.TrimSpace(parsed.Query), nil
}
