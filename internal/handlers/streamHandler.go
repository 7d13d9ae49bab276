package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dkurup/agenticrag/internal/adapter"
	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/job"
	"github.com/dkurup/agenticrag/internal/rag/pipeline"
)

var streamJobService *job.Service

func InitStreamHandlers(jobService *job.Service) {
	streamJobService = jobService
}

// ChatStreamHandler answers a question over SSE. Stage events go out as
// "trace" events while the answer loop runs, then a single "answer"
// event carries the result.
func ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	question := r.URL.Query().Get("question")
	if question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "question query parameter is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "streaming unsupported")
		return
	}
	setStreamHeaders(w)

	ctx, cancel := context.WithTimeout(r.Context(), config.StreamWriteTimeout)
	defer cancel()

	sink := pipeline.NewChannelSink(config.BufferLimit)
	type outcome struct {
		answer ragModel.FinalAnswer
		err    error
	}
	resultChan := make(chan outcome, 1)
	go func() {
		answer, err := handlerInstance.ragService.AskStream(ctx, question, sink)
		sink.Close()
		resultChan <- outcome{answer: answer, err: err}
	}()

	for event := range sink.C {
		writeSSE(w, flusher, "trace", event)
	}

	result := <-resultChan
	if result.err != nil {
		logRH.Error("Streamed question failed", "error", result.err)
		writeSSE(w, flusher, "error", map[string]string{"message": "answer failed"})
		return
	}
	writeSSE(w, flusher, "final", adapter.ToAnswerResponse(question, result.answer))
}

// IngestProgressHandler streams one job's ingestion progress over SSE
// until the job reaches a terminal stage or the client goes away.
func IngestProgressHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	jobId := r.URL.Query().Get("jobId")
	if jobId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "jobId query parameter is required")
		return
	}
	if _, found := GetJobStatus(jobId, traceFrom(r.Context())); !found {
		WriteErrorResponse(w, http.StatusNotFound, jobId, "Job not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "streaming unsupported")
		return
	}
	setStreamHeaders(w)

	events, cancel := streamJobService.Progress.Subscribe(jobId)
	defer cancel()

	timeout := time.NewTimer(config.StreamWriteTimeout)
	defer timeout.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			writeSSE(w, flusher, "progress", event)
			if event.Done {
				return
			}
		case <-r.Context().Done():
			return
		case <-timeout.C:
			logRH.Warn("Progress stream timed out", "jobId", jobId)
			return
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, eventName string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logRH.Error("Could not marshal stream event", "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, data)
	flusher.Flush()
}
