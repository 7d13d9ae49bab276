package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/job"
	"github.com/dkurup/agenticrag/internal/metrics"
	"github.com/dkurup/agenticrag/internal/rag"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

type newJobData struct {
	id        string
	traceId   string
	source    string
	title     string
	text      string
	filePath  string
	logicalId string
	upsert    bool
}

func InitHandlers(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.Info("To create new job", "traceId", newJob.traceId, "jobId", newJob.id)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.CurrentStep = jobModel.IngestInit
	_job.Payload = jobModel.IngestPayload{
		Source:    newJob.source,
		Title:     newJob.title,
		Text:      newJob.text,
		FilePath:  newJob.filePath,
		LogicalId: newJob.logicalId,
		Upsert:    newJob.upsert,
	}

	// Persist before the channel send so a status poll right after the
	// 202 always finds the job.
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Failed to persist queued job", "err", err)
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send so the queue applies backpressure
	logJH.Info("Created new job", "jobId", _job.Id)

	// Ingestion batches against external services and can take a
	// while, so every queued document may grow the pool. Idle workers
	// retire on their own.
	atomic.AddInt64(&h.service.RequestCount, 1)
	metrics.StartDispatcherSignalCount() //metrics
	h.service.DispatcherChannel <- true
}
