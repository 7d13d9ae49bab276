package rag

import (
	"context"
	"strings"
	"time"

	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/metrics"
	"github.com/dkurup/agenticrag/internal/rag/corpus"
	"github.com/dkurup/agenticrag/internal/rag/llm"
	"github.com/dkurup/agenticrag/internal/rag/pipeline"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

// Service is the single entry point the transport layer talks to. It
// hides the answer loop and the corpus behind one surface.
type Service interface {
	Ask(ctx context.Context, question string) (ragModel.FinalAnswer, error)
	AskStream(ctx context.Context, question string, sink pipeline.TraceSink) (ragModel.FinalAnswer, error)
	IngestText(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error)
	Reembed(ctx context.Context, scope string, modelName string) (int, error)
	Close() error
}

type ragService struct {
	store    *corpus.Store
	pipeline *pipeline.Pipeline
	logger   *logger_i.Logger
}

func NewService(store *corpus.Store, provider llm.Provider) Service {
	return &ragService{
		store:    store,
		pipeline: pipeline.NewPipeline(provider, store),
		logger:   logger_i.NewLogger("ragService"),
	}
}

func (r *ragService) Ask(ctx context.Context, question string) (ragModel.FinalAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return ragModel.FinalAnswer{}, faults.Configuration("question is empty")
	}
	return r.pipeline.Run(ctx, question, pipeline.NopTrace())
}

// AskStream answers the question while emitting stage events to the
// caller's sink, for the streaming surface.
func (r *ragService) AskStream(ctx context.Context, question string, sink pipeline.TraceSink) (ragModel.FinalAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return ragModel.FinalAnswer{}, faults.Configuration("question is empty")
	}
	return r.pipeline.Run(ctx, question, sink)
}

func (r *ragService) IngestText(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
	if strings.TrimSpace(params.Text) == "" {
		return ragModel.IngestResult{}, faults.Configuration("document text is empty")
	}
	if strings.TrimSpace(params.Source) == "" || strings.TrimSpace(params.Title) == "" {
		return ragModel.IngestResult{}, faults.Configuration("source and title are required")
	}
	start := time.Now()
	result, err := r.store.IngestText(ctx, params)
	metrics.CaptureStageMetrics("ingest", time.Since(start))
	if err != nil {
		return ragModel.IngestResult{}, err
	}
	r.logger.Info("Document ingested", "logicalId", result.LogicalId, "version", result.Version)
	return result, nil
}

func (r *ragService) Reembed(ctx context.Context, scope string, modelName string) (int, error) {
	start := time.Now()
	updated, err := r.store.Reembed(ctx, scope, modelName)
	metrics.CaptureStageMetrics("reembed", time.Since(start))
	if err != nil {
		return 0, err
	}
	r.logger.Info("Reembed complete", "scope", scope, "updatedChunks", updated)
	return updated, nil
}

func (r *ragService) Close() error {
	return r.store.Close()
}
