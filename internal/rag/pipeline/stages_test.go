package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dkurup/agenticrag/internal/domain/ragModel"
)

func TestRouteQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		hasDocs  bool
		want     bool
	}{
		{"factual question with docs", "What was Q3 revenue?", true, true},
		{"factual question without docs", "What was Q3 revenue?", false, true},
		{"greeting with docs still grounds", "hello", true, true},
		{"greeting without docs", "hello", false, false},
		{"greeting with punctuation", "  Hello!  ", false, false},
		{"identity question without docs", "Who are you?", false, false},
		{"greeting embedded in question", "hi there, what was Q3 revenue?", false, true},
		{"thanks without docs", "thanks", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routeQuestion(tt.question, tt.hasDocs); got != tt.want {
				t.Errorf("routeQuestion(%q, %v) = %v, want %v", tt.question, tt.hasDocs, got, tt.want)
			}
		})
	}
}

func TestAggregateHits(t *testing.T) {
	raw := []ragModel.ChunkHit{
		{ChunkId: 7, Score: 0.50, Content: "first seven"},
		{ChunkId: 3, Score: 0.90},
		{ChunkId: 7, Score: 0.99, Content: "second seven"},
		{ChunkId: 9, Score: 0.70},
		{ChunkId: 4, Score: 0.10},
	}
	got := aggregateHits(raw, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(got))
	}
	if got[0].ChunkId != 3 || got[1].ChunkId != 9 || got[2].ChunkId != 7 {
		t.Fatalf("wrong order: %+v", got)
	}
	// Duplicates keep the first occurrence, not the higher score.
	if got[2].Content != "first seven" || got[2].Score != 0.50 {
		t.Fatalf("dedupe must keep the first occurrence, got %+v", got[2])
	}
}

func TestAggregateHits_Empty(t *testing.T) {
	if got := aggregateHits(nil, 3); len(got) != 0 {
		t.Fatalf("expected no hits, got %+v", got)
	}
}

func TestJudgeDraft(t *testing.T) {
	hits := []ragModel.ChunkHit{
		{ChunkId: 11, Title: "Doc", ChunkIndex: 0},
		{ChunkId: 12, Title: "Doc", ChunkIndex: 1},
	}
	tests := []struct {
		name   string
		draft  string
		hits   []ragModel.ChunkHit
		accept bool
	}{
		{"cited and long enough", "Revenue was 44992 across both regions [chunk:11].", hits, true},
		{"multiple valid citations", "5661 here [chunk:11] and 39331 there [chunk:12].", hits, true},
		{"no citations", "Revenue was strong across both regions this year.", hits, false},
		{"unknown chunk cited", "Revenue was 44992 across both regions [chunk:99].", hits, false},
		{"one bad citation poisons the draft", "Good [chunk:11] but also bad [chunk:99] figures overall.", hits, false},
		{"too short", "Yes [chunk:11].", hits, false},
		{"empty draft", "", hits, false},
		{"no hits at all", "Revenue was 44992 across both regions [chunk:11].", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := judgeDraft(tt.draft, tt.hits)
			if verdict.Accepted != tt.accept {
				t.Errorf("judgeDraft(%q) accepted=%v (%s), want %v", tt.draft, verdict.Accepted, verdict.Reason, tt.accept)
			}
			if !verdict.Accepted && verdict.Reason == "" {
				t.Error("rejections must carry a reason")
			}
		})
	}
}

func TestJudgeDraft_IsDeterministic(t *testing.T) {
	hits := []ragModel.ChunkHit{{ChunkId: 1}}
	draft := "A steady answer grounded in the context [chunk:1]."
	first := judgeDraft(draft, hits)
	for i := 0; i < 5; i++ {
		if got := judgeDraft(draft, hits); got != first {
			t.Fatalf("verdict changed between runs: %+v vs %+v", first, got)
		}
	}
}

func TestCitationsFor(t *testing.T) {
	hits := []ragModel.ChunkHit{
		{ChunkId: 11, Title: "A", ChunkIndex: 0, Score: 0.9},
		{ChunkId: 12, Title: "B", ChunkIndex: 2, Score: 0.8},
		{ChunkId: 13, Title: "C", ChunkIndex: 1, Score: 0.7},
	}
	draft := "Uses [chunk:12] and [chunk:11], twice even [chunk:12]."
	citations := citationsFor(draft, hits)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %+v", citations)
	}
	// Ordered by the retained hit list, not by first mention.
	if citations[0].ChunkId != 11 || citations[1].ChunkId != 12 {
		t.Fatalf("wrong citation order: %+v", citations)
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare json", `{"query": "better query"}`, "better query", false},
		{"fenced json", "```json\n{\"query\": \"fenced query\"}\n```", "fenced query", false},
		{"prose around json", `Sure, try this: {"query": "wrapped query"} hope it helps`, "wrapped query", false},
		{"not json", "just try searching for revenue", "", true},
		{"broken json object", `{"query": `, "", true},
		{"empty query field", `{"query": ""}`, "", false},
		{"whitespace query", `{"query": "   "}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractQuery(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractQuery(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractQuery(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRewriteQueryPromptCarriesFailedDraft(t *testing.T) {
	var captured string
	provider := &mockProvider{
		chatFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			captured = userPrompt
			return `{"query": "regional revenue totals"}`, nil
		},
	}
	hits := []ragModel.ChunkHit{{Title: "Report", Content: "alpha"}}

	got := rewriteQuery(context.Background(), provider, "What is total revenue?", "old query", "The figures look strong this quarter.", hits)
	if got != "regional revenue totals" {
		t.Fatalf("rewriteQuery = %q", got)
	}
	if !strings.Contains(captured, "The figures look strong this quarter.") {
		t.Errorf("prompt must carry the failed draft, got %q", captured)
	}
	if !strings.Contains(captured, "Report::alpha") {
		t.Errorf("prompt must carry the retrieval hints, got %q", captured)
	}
}

func TestTruncateHintKeepsRunesWhole(t *testing.T) {
	hint := strings.Repeat("é", 100)
	got := truncateHint(hint, 161)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if len(got) > 161 {
		t.Fatalf("truncation exceeded the cap: %d bytes", len(got))
	}
	if got != strings.Repeat("é", 80) {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestSynthesizerPromptsListChunkIds(t *testing.T) {
	// The grounded prompt must name every retained chunk id so the
	// model can only cite what was actually retrieved.
	var captured string
	provider := &mockProvider{
		chatFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			captured = userPrompt
			return "ok", nil
		},
	}
	hits := []ragModel.ChunkHit{
		{ChunkId: 5661, Title: "Report", ChunkIndex: 0, Content: "alpha"},
		{ChunkId: 39331, Title: "Report", ChunkIndex: 1, Content: "beta"},
	}
	if _, err := synthesizeGrounded(t.Context(), provider, "q", hits); err != nil {
		t.Fatalf("synthesizeGrounded: %v", err)
	}
	for _, marker := range []string{"[chunk:5661]", "[chunk:39331]", "alpha", "beta"} {
		if !strings.Contains(captured, marker) {
			t.Errorf("prompt missing %q", marker)
		}
	}
}
