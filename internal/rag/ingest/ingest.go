package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/rag"
	"github.com/dkurup/agenticrag/internal/rag/corpus"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

type docType string

const (
	typePDF     docType = "pdf"
	typeOffice  docType = "office"
	typePlain   docType = "plain"
	typeUnknown docType = "unknown"
)

// ProgressPublisher receives the stage events of one running job.
type ProgressPublisher func(event jobModel.ProgressEvent)

var logger = logger_i.NewLogger("Document Ingestion")

// ProcessDocumentIngestion runs one queued ingest job end to end:
// extract the file, then chunk, embed and store it as a new document
// version. The returned job carries the terminal status and, on
// success, the stored document's identity.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, service rag.Service, publish ProgressPublisher) jobModel.Job {
	// Jobs run concurrently across the worker pool, so per-job state
	// stays on a derived local and never touches the package logger.
	jobLog := logger.With("traceId", job.TraceId)

	job.Status = jobModel.JobStatusRunning
	job.CurrentStep = jobModel.IngestInit
	publish(jobModel.Progress(job.Id, "received", 0, 3, "job picked up"))

	text := job.Payload.Text
	if text == "" {
		job.CurrentStep = jobModel.IngestExtracting
		publish(jobModel.Progress(job.Id, "parse", 1, 3, "extracting document text"))

		extracted, err := extractText(job.Payload.FilePath)
		if err != nil {
			jobLog.Error("Extraction failed", "path", job.Payload.FilePath, "error", err)
			return failJob(job, publish, "extracting document text", err)
		}
		text = extracted

		if err := os.Remove(job.Payload.FilePath); err != nil {
			jobLog.Warn("Could not remove uploaded file", "path", job.Payload.FilePath, "error", err)
		}
	}

	job.CurrentStep = jobModel.IngestChunkEmbed
	publish(jobModel.Progress(job.Id, "chunk_embed_store", 2, 3, "chunking and embedding"))

	result, err := service.IngestText(ctx, corpus.IngestParams{
		Source:    job.Payload.Source,
		Title:     job.Payload.Title,
		Text:      text,
		LogicalId: job.Payload.LogicalId,
		Upsert:    job.Payload.Upsert,
		JobId:     job.Id,
	})
	if err != nil {
		jobLog.Error("Store failed", "error", err)
		return failJob(job, publish, "chunking and embedding", err)
	}

	job.Payload.DocumentId = result.DocumentId
	job.Payload.ResultLogicalId = result.LogicalId
	job.Payload.Version = result.Version
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.EndTime = time.Now()
	publish(jobModel.ProgressDone(job.Id, result.DocumentId, result.LogicalId, result.Version, "document stored"))
	jobLog.Info("Ingestion complete", "documentId", result.DocumentId, "version", result.Version)
	return job
}

func failJob(job jobModel.Job, publish ProgressPublisher, stage string, err error) jobModel.Job {
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.ErrorStep
	job.EndTime = time.Now()
	job.Error = jobModel.JobError{Code: 500, Message: err.Error()}
	publish(jobModel.ProgressError(job.Id, stage, err.Error()))
	return job
}

func getDocType(docPath string) docType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return typePDF
	case ".docx", ".odt", ".rtf":
		return typeOffice
	case ".txt", ".md":
		return typePlain
	default:
		return typeUnknown
	}
}

func extractText(path string) (string, error) {
	switch getDocType(path) {
	case typePDF:
		return extractPDF(path)
	case typeOffice:
		return extractOffice(path)
	case typePlain:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}
