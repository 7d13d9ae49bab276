package googleEmbedding

import (
	"context"
	"errors"
	"time"

	"github.com/dkurup/agenticrag/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errEmptyResponse = errors.New("embedding response contained no vectors")

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted {
			log.Error("Rate limit hit", "error", err)
			return true
		}
	}
	return false
}

func (c *client) retryAfterBackoff(ctx context.Context, chunks []string) (*genai.EmbedContentResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
	}
	logger.Debug("Retrying embedding batch after backoff")
	return c.doCall(ctx, getContent(chunks))
}
