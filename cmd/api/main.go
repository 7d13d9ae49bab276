package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/data/store"
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/handlers"
	"github.com/dkurup/agenticrag/internal/job"
	"github.com/dkurup/agenticrag/internal/rag"
	"github.com/dkurup/agenticrag/internal/rag/corpus"
	"github.com/dkurup/agenticrag/internal/rag/embedding/googleEmbedding"
	"github.com/dkurup/agenticrag/internal/rag/llm"
	"github.com/dkurup/agenticrag/internal/rag/llm/gemini"
	"github.com/dkurup/agenticrag/internal/rag/llm/openaicompat"
	"github.com/dkurup/agenticrag/internal/server"
	"github.com/dkurup/agenticrag/internal/worker"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on process environment")
	}

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	var jobStore jobModel.JobStore
	if redisJobStore := store.GetRedisJobStore(serviceContext); redisJobStore != nil {
		jobStore = redisJobStore
	} else {
		logger.Error("Redis store is offline, falling back to in-memory job store")
		jobStore = store.InitInMemoryJobStore()
	}
	logger.Info("Starting job service")

	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	googleAPIKey := os.Getenv("GEMINI_API_KEY")
	embeddingService := googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, googleAPIKey)
	llmProvider := selectLLMProvider(serviceContext, logger, googleAPIKey)

	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	dbPath := os.Getenv("CORPUS_DB_PATH")
	if dbPath == "" {
		dbPath = config.CorpusDBPath
	}
	corpusStore, err := corpus.NewStore(dbPath, embeddingService, int(config.EmbeddingOutputDimensionality))
	if err != nil {
		logger.Error("Could not open corpus store", "error", err)
		return
	}

	ragService := rag.NewService(corpusStore, llmProvider)
	defer func() {
		if err := ragService.Close(); err != nil {
			logger.Error("Error closing corpus store", "error", err)
		}
	}()

	handlers.InitHandlers(jobService, ragService)
	handlers.InitStreamHandlers(jobService)

	//init worker pool
	worker.InitServices(jobService, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func selectLLMProvider(ctx context.Context, logger *logger_i.Logger, googleAPIKey string) llm.Provider {
	providerName := os.Getenv("LLM_PROVIDER")
	if providerName == "" {
		providerName = config.DefaultLLMProvider
	}

	switch providerName {
	case config.LLMProviderOpenAICompat:
		logger.Info("Using OpenAI-compatible LLM provider")
		return openaicompat.GetOpenAICompatClient(
			os.Getenv("OPENAI_API_KEY"),
			os.Getenv("OPENAI_BASE_URL"),
			config.OpenAICompatModelName,
		)
	case config.LLMProviderGemini:
		logger.Info("Using Gemini LLM provider")
		return gemini.GetGeminiClient(ctx, googleAPIKey, config.GeminiModelName)
	default:
		logger.Error("Unknown LLM provider", "provider", providerName)
		return nil
	}
}
