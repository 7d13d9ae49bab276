package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IngestInit       InternalStatus = "IngestInit"
	IngestExtracting InternalStatus = "IngestExtracting"
	IngestChunkEmbed InternalStatus = "IngestChunkEmbedStore"
	Complete         InternalStatus = "Complete"
	ErrorStep        InternalStatus = "Error"
)

// Job is one queued document ingestion. Question answering runs on the
// request path and never goes through the job queue.
type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	Payload     IngestPayload  `json:"payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type IngestPayload struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	FilePath  string `json:"file_path,omitempty"`
	Text      string `json:"text,omitempty"`
	LogicalId string `json:"logical_id,omitempty"`
	Upsert    bool   `json:"upsert"`

	//filled on completion
	DocumentId      int64  `json:"document_id,omitempty"`
	ResultLogicalId string `json:"result_logical_id,omitempty"`
	Version         int    `json:"version,omitempty"`
}

// ProgressEvent is one entry of a job's progress stream. A terminal event
// has Done set; Error is non-empty when the job failed.
type ProgressEvent struct {
	JobId      string    `json:"jobId"`
	Stage      string    `json:"stage"`
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Message    string    `json:"message"`
	DocumentId int64     `json:"documentId,omitempty"`
	LogicalId  string    `json:"logicalId,omitempty"`
	Version    int       `json:"version,omitempty"`
	Done       bool      `json:"done"`
	Error      string    `json:"error,omitempty"`
	Ts         time.Time `json:"ts"`
}

func Progress(jobId, stage string, current, total int, message string) ProgressEvent {
	return ProgressEvent{JobId: jobId, Stage: stage, Current: current, Total: total, Message: message, Ts: time.Now()}
}

func ProgressDone(jobId string, documentId int64, logicalId string, version int, message string) ProgressEvent {
	return ProgressEvent{JobId: jobId, Stage: "done", Current: 1, Total: 1, Message: message,
		DocumentId: documentId, LogicalId: logicalId, Version: version, Done: true, Ts: time.Now()}
}

func ProgressError(jobId, message, errText string) ProgressEvent {
	return ProgressEvent{JobId: jobId, Stage: "error", Message: message, Done: true, Error: errText, Ts: time.Now()}
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
