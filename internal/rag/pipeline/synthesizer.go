package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/rag/llm"
)

const groundedSystemPrompt = `You are a careful assistant that answers strictly from the supplied context chunks.
Rules:
- Use only information present in the context chunks below. Do not use outside knowledge.
- Cite every factual claim with the marker [chunk:ID] of the chunk it came from.
- Only cite IDs that appear in the context. Never invent chunk IDs.
- If the context does not contain the answer, say so plainly.`

const ungroundedSystemPrompt = `You are a helpful assistant. Answer the user directly and briefly.
There is no document context for this conversation, so do not pretend to cite sources.`

// synthesizeGrounded asks the model for a draft answer built from the
// aggregated context chunks.
func synthesizeGrounded(ctx context.Context, provider llm.Provider, question string, hits []ragModel.ChunkHit) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Question: %s\n\n", question)
	prompt.WriteString("Available chunk IDs: ")
	for i, hit := range hits {
		if i > 0 {
			prompt.WriteString(", ")
		}
		fmt.Fprintf(&prompt, "%d", hit.ChunkId)
	}
	prompt.WriteString("\n\nContext chunks:\n")
	for _, hit := range hits {
		fmt.Fprintf(&prompt, "\n[chunk:%d] (document: %s, part %d)\n%s\n", hit.ChunkId, hit.Title, hit.ChunkIndex, hit.Content)
	}
	return provider.Chat(ctx, groundedSystemPrompt, prompt.String())
}

// synthesizeUngrounded answers smalltalk or empty-corpus questions
// without any retrieved context.
func synthesizeUngrounded(ctx context.Context, provider llm.Provider, question string) (string, error) {
	return provider.Chat(ctx, ungroundedSystemPrompt, question)
}
