package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/metrics"
	"github.com/dkurup/agenticrag/internal/rag/ingest"
)

func executeJob(currentJob jobModel.Job) {
	start := time.Now()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, 5*time.Minute)
	defer cancel()
	logger.Debug("Processing job", "jobId", currentJob.Id)

	currentJob.Status = jobModel.JobStatusRunning
	saveJobState(ctx, currentJob)

	done := ingest.ProcessDocumentIngestion(ctx, currentJob, _ragService, _jobService.Progress.Publish)

	saveJobState(ctx, done)
	metrics.CaptureJobMetrics(string(done.Status), time.Since(start))
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, currentJob jobModel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("Failed to persist job state", "err", err)
	}
}
