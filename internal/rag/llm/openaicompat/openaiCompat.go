package openaicompat

import (
	"context"
	"errors"
	"sync"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/customHttpClient"
	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/rag/llm"
	"github.com/dkurup/agenticrag/pkg/logger_i"
	openai "github.com/sashabaranov/go-openai"
)

// Provider for any OpenAI-compatible chat endpoint. With a custom base URL
// this also covers local servers exposing the same API.

type llmClient struct {
	client    *openai.Client
	modelName string
}

var logger *logger_i.Logger
var compatClient *llmClient
var once sync.Once

func GetOpenAICompatClient(apikey string, baseURL string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai_compat")
		newCompatClient(apikey, baseURL, modelName)
	})

	if compatClient == nil {
		return nil
	}
	return &llmClient{client: compatClient.client, modelName: compatClient.modelName}
}

func newCompatClient(apikey string, baseURL string, modelName string) {
	cfg := openai.DefaultConfig(apikey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = customHttpClient.Pooled()

	compatClient = &llmClient{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
	}
	logger.Info("OpenAI-compatible client created", "model", modelName, "baseURL", cfg.BaseURL)
}

func (c *llmClient) Chat(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.modelName,
		Temperature: config.ModelTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		logger.Error("Chat completion failed", "error", err)
		return "", faults.ExternalCall("generation", err)
	}
	if len(resp.Choices) == 0 {
		return "", faults.ExternalCall("generation", errors.New("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}
