package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/metrics"
	"github.com/dkurup/agenticrag/internal/rag/llm"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

const exhaustedPrefix = "I couldn't confidently ground a complete answer from the retrieved context.\n\n"

// Retriever is the slice of the corpus the answer loop needs.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]ragModel.ChunkHit, error)
	HasAnyDocuments(ctx context.Context) (bool, error)
}

// Pipeline runs one question through route, retrieve, synthesize and
// judge, retrying with rewritten queries up to the attempt budget.
type Pipeline struct {
	provider  llm.Provider
	retriever Retriever
	logger    *logger_i.Logger
}

func NewPipeline(provider llm.Provider, retriever Retriever) *Pipeline {
	return &Pipeline{
		provider:  provider,
		retriever: retriever,
		logger:    logger_i.NewLogger("pipeline"),
	}
}

// Run answers one question. The trace sink receives progress events as
// the loop moves through its stages; pass NopTrace when nobody is
// listening.
func (p *Pipeline) Run(ctx context.Context, question string, sink TraceSink) (ragModel.FinalAnswer, error) {
	start := time.Now()
	state := NewState(question)

	hasDocs, err := p.retriever.HasAnyDocuments(ctx)
	if err != nil {
		metrics.CaptureAnswerMetrics("error", time.Since(start))
		return ragModel.FinalAnswer{}, err
	}
	state.SetNeedsRetrieval(routeQuestion(question, hasDocs))
	emit(sink, "router", "route_decided", map[string]any{
		"needsRetrieval": state.NeedsRetrieval(),
		"corpusHasDocs":  hasDocs,
	})

	if !state.NeedsRetrieval() {
		answer, err := p.answerUngrounded(ctx, state, sink)
		if err != nil {
			metrics.CaptureAnswerMetrics("error", time.Since(start))
			return ragModel.FinalAnswer{}, err
		}
		metrics.CaptureAnswerMetrics("ungrounded", time.Since(start))
		return answer, nil
	}

	emit(sink, "supervisor", "plan", map[string]any{
		"parallelRetrievers": []int{config.RetrieverKSmall, config.RetrieverKMedium, config.RetrieverKLarge},
		"maxRetries":         config.MaxRewriteRetries,
	})

	answer, status, err := p.answerGrounded(ctx, state, sink)
	if err != nil {
		metrics.CaptureAnswerMetrics("error", time.Since(start))
		return ragModel.FinalAnswer{}, err
	}
	metrics.CaptureAnswerMetrics(status, time.Since(start))
	return answer, nil
}

func (p *Pipeline) answerUngrounded(ctx context.Context, state *State, sink TraceSink) (ragModel.FinalAnswer, error) {
	stageStart := time.Now()
	draft, err := synthesizeUngrounded(ctx, p.provider, state.Question)
	metrics.CaptureStageMetrics("synthesize", time.Since(stageStart))
	if err != nil {
		return ragModel.FinalAnswer{}, err
	}
	emit(sink, "synthesizer", "draft_ready", map[string]any{"grounded": false})
	return ragModel.FinalAnswer{Answer: draft}, nil
}

func (p *Pipeline) answerGrounded(ctx context.Context, state *State, sink TraceSink) (ragModel.FinalAnswer, string, error) {
	var lastVerdict Verdict

	for attempt := 0; attempt <= config.MaxRewriteRetries; attempt++ {
		if attempt > 0 {
			previousQuery := state.Query()
			stageStart := time.Now()
			rewritten := rewriteQuery(ctx, p.provider, state.Question, previousQuery, state.DraftAnswer(), state.Hits())
			metrics.CaptureStageMetrics("rewrite", time.Since(stageStart))
			state.SetQuery(rewritten)
			emit(sink, "rewriter", "query_rewritten", map[string]any{
				"attempt":       attempt,
				"previousQuery": previousQuery,
				"query":         state.Query(),
			})
		}
		state.ClearHits()

		if err := p.retrieve(ctx, state, sink); err != nil {
			return ragModel.FinalAnswer{}, "", err
		}

		aggregated := aggregateHits(state.Hits(), config.TopChunksForSynthesis)
		state.ReplaceHits(aggregated)
		emit(sink, "aggregator", "hits_aggregated", map[string]any{
			"retained": len(aggregated),
		})

		stageStart := time.Now()
		draft, err := synthesizeGrounded(ctx, p.provider, state.Question, aggregated)
		metrics.CaptureStageMetrics("synthesize", time.Since(stageStart))
		if err != nil {
			return ragModel.FinalAnswer{}, "", err
		}
		state.SetDraftAnswer(draft)
		emit(sink, "synthesizer", "draft_ready", map[string]any{
			"grounded":      true,
			"attempt":       attempt,
			"contextChunks": len(aggregated),
			"draftLength":   len(draft),
		})

		lastVerdict = judgeDraft(draft, aggregated)
		state.IncrementAttempt()
		if lastVerdict.Accepted {
			metrics.CountAttemptVerdict("accepted")
			state.SetAccepted(true)
			emit(sink, "judge", "accepted", map[string]any{
				"attempt":      attempt,
				"retainedHits": len(aggregated),
			})
			return ragModel.FinalAnswer{
				Answer:    draft,
				Citations: citationsFor(draft, aggregated),
			}, "accepted", nil
		}
		metrics.CountAttemptVerdict("rejected")
		emit(sink, "judge", "rejected", map[string]any{
			"attempt":      attempt,
			"retainedHits": len(aggregated),
			"reason":       lastVerdict.Reason,
		})
		p.logger.Info("draft rejected", "attempt", attempt, "reason", lastVerdict.Reason)
	}

	metrics.CountAttemptVerdict("exhausted")
	emit(sink, "supervisor", "exhausted", map[string]any{
		"attempts": state.Attempt(),
		"reason":   lastVerdict.Reason,
	})
	return ragModel.FinalAnswer{
		Answer:    exhaustedPrefix + state.DraftAnswer(),
		Citations: citationsFor(state.DraftAnswer(), state.Hits()),
	}, "exhausted", nil
}

// retrieve fans the working query out to three retrievers with
// different depths. Any worker failure aborts the whole question; a
// partial context set would silently weaken grounding.
func (p *Pipeline) retrieve(ctx context.Context, state *State, sink TraceSink) error {
	depths := []int{config.RetrieverKSmall, config.RetrieverKMedium, config.RetrieverKLarge}
	query := state.Query()

	stageStart := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(config.RetrieverFanOut)
	for _, k := range depths {
		group.Go(func() error {
			hits, err := p.retriever.Search(groupCtx, query, k)
			if err != nil {
				return faults.ExternalCall("retriever", err)
			}
			state.AddHits(hits)
			emit(sink, "retriever", "search_complete", map[string]any{
				"query": query,
				"k":     k,
				"hits":  len(hits),
			})
			return nil
		})
	}
	err := group.Wait()
	metrics.CaptureStageMetrics("retrieve", time.Since(stageStart))
	if err != nil {
		return err
	}
	emit(sink, "retriever", "fan_out_complete", map[string]any{
		"query":   query,
		"rawHits": len(state.Hits()),
		"fanOut":  len(depths),
	})
	return nil
}
