package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	NoAuthBypass = true
	AuthToken    = ""

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//corpus store
	CorpusDBPath                        = "data/corpus.db"
	EmbeddingOutputDimensionality int32 = 1536

	//pipeline
	//three parallel retrievers, each with its own top-k
	RetrieverKSmall       = 6
	RetrieverKMedium      = 10
	RetrieverKLarge       = 14
	RetrieverFanOut       = 3
	TopChunksForSynthesis = 3
	MaxRewriteRetries     = 2
	MinDraftAnswerLength  = 20
	RewriteHintLimit      = 5

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	StreamWriteTimeout     = 5 * time.Minute //SSE responses outlive normal writes
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//llm
	LLMProviderGemini       = "gemini"
	LLMProviderOpenAICompat = "openai"
	DefaultLLMProvider      = LLMProviderGemini

	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"

	OpenAICompatModelName = "gpt-4o-mini"

	//deterministic generation keeps grounding reproducible across retries
	ModelTemperature float32 = 0.0

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""

	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour
)
