package llm

import "context"

type Provider interface {
	Chat(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
